package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"telegram-mood-tracker/internal/models"
	"telegram-mood-tracker/internal/storage"
)

const dateLayout = "2006-01-02"

// Sender delivers a text to a chat. Errors are transport or auth failures.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Feed fetches updates with identifiers >= offset.
type Feed interface {
	Fetch(ctx context.Context, offset int) ([]models.Incoming, error)
}

// Journal is the append-only record of answers.
type Journal interface {
	AppendMain(ctx context.Context, r models.MainRow) error
	AppendDetails(ctx context.Context, r models.DetailsRow) error
	AppendFollowup(ctx context.Context, r models.FollowupRow) error
}

type Options struct {
	ChatID        int64
	Location      *time.Location
	FollowupDelay time.Duration
	Questionnaire Questionnaire
	Now           func() time.Time
	NewID         func() string
}

// Handler is the conversation engine for the single configured chat.
type Handler struct {
	Bot     Sender
	Feed    Feed
	DB      storage.Store
	Journal Journal

	chatID int64
	loc    *time.Location
	delay  time.Duration
	form   Questionnaire
	now    func() time.Time
	newID  func() string
}

func NewHandler(bot Sender, feed Feed, db storage.Store, j Journal, opts Options) *Handler {
	h := &Handler{
		Bot:     bot,
		Feed:    feed,
		DB:      db,
		Journal: j,
		chatID:  opts.ChatID,
		loc:     opts.Location,
		delay:   opts.FollowupDelay,
		form:    opts.Questionnaire,
		now:     opts.Now,
		newID:   opts.NewID,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.delay <= 0 {
		h.delay = time.Hour
	}
	if h.form == nil {
		h.form = Stepwise{}
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.newID == nil {
		h.newID = uuid.NewString
	}
	return h
}

// notify is the best-effort send: a failed acknowledgment never blocks
// state changes or logging.
func (h *Handler) notify(ctx context.Context, text string) {
	if err := h.Bot.Send(ctx, h.chatID, text); err != nil {
		slog.Warn("notify failed, ignoring", "chat_id", h.chatID, "error", err)
	}
}

// deliver is the must-succeed send used where bookkeeping depends on delivery.
func (h *Handler) deliver(ctx context.Context, text string) error {
	return h.Bot.Send(ctx, h.chatID, text)
}
