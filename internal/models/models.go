package models

import "time"

// Slot is one of the three daily check-in times, canonical form "HH:MM".
type Slot string

const (
	SlotMorning   Slot = "09:00"
	SlotAfternoon Slot = "15:00"
	SlotEvening   Slot = "21:00"
)

var Slots = []Slot{SlotMorning, SlotAfternoon, SlotEvening}

// Answers collected by the questionnaire, keyed like the details log columns.
type Answers struct {
	DurationH string `json:"duration_h"`
	Reason    string `json:"reason"`
	Thoughts  string `json:"thoughts"`
	Desire    string `json:"desire"`
	Choice    string `json:"choice"`
}

// Conversation is the in-progress questionnaire for one chat.
type Conversation struct {
	ChatID           int64     `json:"chat_id"`
	Active           bool      `json:"active"`
	Slot             Slot      `json:"slot"`
	Date             string    `json:"date"` // YYYY-MM-DD, local
	OriginTS         time.Time `json:"origin_ts"`
	Step             int       `json:"step"`
	LastQuestionSent int       `json:"last_question_sent_step"` // -1 = nothing sent yet
	AwaitingDetails  bool      `json:"awaiting_details,omitempty"`
	Answers          Answers   `json:"answers"`
}

// FollowupEntry is a delayed re-check. Entries are never deleted, only closed.
type FollowupEntry struct {
	ID               string     `json:"id"`
	ChatID           int64      `json:"chat_id"`
	Date             string     `json:"date"`
	Slot             Slot       `json:"slot"`
	OriginTS         time.Time  `json:"origin_ts"`
	DueAt            time.Time  `json:"due_ts_utc"`
	Sent             bool       `json:"sent"`
	AwaitingResponse bool       `json:"awaiting_response"`
	SentAt           *time.Time `json:"followup_sent_ts"`
}

// Incoming is one fetched update, already reduced to what the engine needs.
// Text is empty and ChatID zero for updates without a message.
type Incoming struct {
	UpdateID int
	ChatID   int64
	Text     string
	Date     time.Time
}

// MainRow: date, slot, answer, telegram_message_ts, action_suggested.
type MainRow struct {
	Date      string
	Slot      Slot
	Answer    bool
	MessageTS time.Time
	Action    string
}

// DetailsRow: date, slot, origin_ts and the five questionnaire fields.
type DetailsRow struct {
	Date     string
	Slot     Slot
	OriginTS time.Time
	Answers  Answers
}

// FollowupRow: date, slot, origin_ts, followup_sent_ts, followup_response_ts, response, response_text.
// Response is nil when the entry closed without an answer.
type FollowupRow struct {
	Date         string
	Slot         Slot
	OriginTS     time.Time
	SentAt       *time.Time
	RespondedAt  *time.Time
	Response     *bool
	ResponseText string
}
