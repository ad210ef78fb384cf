package handlers

import (
	"strings"

	"telegram-mood-tracker/internal/models"
)

type Kind int

const (
	Unrecognized Kind = iota
	FollowupReply
	QuestionnaireAnswer
	SlotAnswer
)

func (k Kind) String() string {
	switch k {
	case FollowupReply:
		return "followup_reply"
	case QuestionnaireAnswer:
		return "questionnaire_answer"
	case SlotAnswer:
		return "slot_answer"
	default:
		return "unrecognized"
	}
}

type Classification struct {
	Kind Kind
	Slot models.Slot
	Yes  bool
	Text string
}

var slotTokens = map[string]models.Slot{
	"9":  models.SlotMorning,
	"09": models.SlotMorning,
	"15": models.SlotAfternoon,
	"21": models.SlotEvening,
}

// Classify picks exactly one meaning for text. First match wins: a yes/no
// reply to a dispatched followup, then an answer for the active
// questionnaire, then a slot answer.
func Classify(text string, conv *models.Conversation, followups []models.FollowupEntry) Classification {
	if yes, ok := parseYesNo(text); ok && hasAwaiting(followups) {
		return Classification{Kind: FollowupReply, Yes: yes, Text: strings.ToLower(strings.TrimSpace(text))}
	}
	if conv != nil && conv.Active {
		return Classification{Kind: QuestionnaireAnswer, Text: strings.TrimSpace(text)}
	}
	if slot, yes, ok := ParseSlotAnswer(text); ok {
		return Classification{Kind: SlotAnswer, Slot: slot, Yes: yes}
	}
	return Classification{Kind: Unrecognized}
}

func hasAwaiting(followups []models.FollowupEntry) bool {
	for _, e := range followups {
		if e.Sent && e.AwaitingResponse {
			return true
		}
	}
	return false
}

func parseYesNo(s string) (yes, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "oui":
		return true, true
	case "non":
		return false, true
	}
	return false, false
}

// ParseSlotAnswer reads "<slot> <oui|non>", e.g. "9 oui", "21h non", "15: oui".
// A separator alone also splits the tokens ("9:oui", "9houi"). Only the first
// two tokens count.
func ParseSlotAnswer(text string) (models.Slot, bool, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.NewReplacer(":", " ", "h", " ").Replace(t)
	parts := strings.Fields(t)
	if len(parts) < 2 {
		return "", false, false
	}
	slot, ok := slotTokens[parts[0]]
	if !ok {
		return "", false, false
	}
	yes, ok := parseYesNo(parts[1])
	if !ok {
		return "", false, false
	}
	return slot, yes, true
}

// ParseSlot accepts a slot on its own: "9", "09", "9h", "09:00", "21:00".
func ParseSlot(s string) (models.Slot, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	t = strings.TrimSuffix(t, ":00")
	t = strings.TrimSuffix(t, "h00")
	t = strings.TrimSuffix(t, "h")
	slot, ok := slotTokens[t]
	return slot, ok
}
