package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"telegram-mood-tracker/internal/models"
)

// PollResult summarizes one Poll run.
type PollResult struct {
	Fetched   int
	Handled   int
	Ignored   int
	OffsetOld int
	OffsetNew int
}

// Poll fetches updates since the stored offset, handles the configured chat's
// text messages in order and then advances the offset to the highest
// identifier seen, filtered updates included. A fetch failure returns before
// anything is written. When handling an update fails, the offset still
// advances past the updates already handled so only the failing one is
// retried.
func (h *Handler) Poll(ctx context.Context) (PollResult, error) {
	var res PollResult
	last, err := h.DB.LastUpdateID(ctx)
	if err != nil {
		return res, fmt.Errorf("read offset: %w", err)
	}
	res.OffsetOld, res.OffsetNew = last, last

	updates, err := h.Feed.Fetch(ctx, last+1)
	if err != nil {
		return res, fmt.Errorf("fetch updates: %w", err)
	}
	res.Fetched = len(updates)

	done := last
	for _, u := range updates {
		if u.UpdateID <= last {
			continue
		}
		text := strings.TrimSpace(u.Text)
		if u.ChatID != h.chatID || text == "" {
			res.Ignored++
			done = max(done, u.UpdateID)
			continue
		}
		kind, err := h.HandleText(ctx, text, u.Date)
		if err != nil {
			err = fmt.Errorf("update %d: %w", u.UpdateID, err)
			if serr := h.advanceOffset(ctx, &res, done); serr != nil {
				return res, errors.Join(err, serr)
			}
			return res, err
		}
		if kind == Unrecognized {
			res.Ignored++
		} else {
			res.Handled++
		}
		done = max(done, u.UpdateID)
	}

	return res, h.advanceOffset(ctx, &res, done)
}

func (h *Handler) advanceOffset(ctx context.Context, res *PollResult, id int) error {
	if id <= res.OffsetOld {
		return nil
	}
	if err := h.DB.SaveLastUpdateID(ctx, id); err != nil {
		return fmt.Errorf("save offset: %w", err)
	}
	res.OffsetNew = id
	return nil
}

// HandleText classifies one message of the configured chat and applies it.
func (h *Handler) HandleText(ctx context.Context, text string, at time.Time) (Kind, error) {
	conv, err := h.DB.GetConversation(ctx, h.chatID)
	if err != nil {
		return Unrecognized, err
	}
	followups, err := h.DB.ListFollowups(ctx, h.chatID)
	if err != nil {
		return Unrecognized, err
	}

	local := at.In(h.loc)
	c := Classify(text, conv, followups)
	slog.Debug("message classified", "chat_id", h.chatID, "kind", c.Kind)

	switch c.Kind {
	case FollowupReply:
		err = h.recordFollowupReply(ctx, followups, c.Yes, c.Text, local)
	case QuestionnaireAnswer:
		err = h.recordQuestionnaireAnswer(ctx, conv, c.Text)
	case SlotAnswer:
		err = h.recordSlotAnswer(ctx, c.Slot, c.Yes, local)
	}
	return c.Kind, err
}

func (h *Handler) recordSlotAnswer(ctx context.Context, slot models.Slot, yes bool, at time.Time) error {
	date := at.Format(dateLayout)
	action := ""
	if !yes {
		action = suggestedActions()
		if err := h.StartConversation(ctx, slot, at); err != nil {
			return err
		}
	}
	slog.Info("slot answer", "chat_id", h.chatID, "slot", slot, "yes", yes)
	return h.Journal.AppendMain(ctx, models.MainRow{
		Date:      date,
		Slot:      slot,
		Answer:    yes,
		MessageTS: at,
		Action:    action,
	})
}

// StartConversation opens a questionnaire for slot. An existing conversation
// for the chat is replaced, never stacked.
func (h *Handler) StartConversation(ctx context.Context, slot models.Slot, at time.Time) error {
	at = at.In(h.loc)
	conv := &models.Conversation{
		ChatID:   h.chatID,
		Slot:     slot,
		Date:     at.Format(dateLayout),
		OriginTS: at,
	}
	h.form.Begin(conv)
	if err := h.DB.SetConversation(ctx, conv); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	if h.form.ScheduleOnStart() {
		return h.scheduleFollowup(ctx, conv)
	}
	return nil
}

func (h *Handler) recordQuestionnaireAnswer(ctx context.Context, conv *models.Conversation, text string) error {
	complete, err := h.form.Answer(ctx, conv, text)
	if err != nil {
		return err
	}
	if !complete {
		return h.DB.SetConversation(ctx, conv)
	}

	if err := h.Journal.AppendDetails(ctx, models.DetailsRow{
		Date:     conv.Date,
		Slot:     conv.Slot,
		OriginTS: conv.OriginTS,
		Answers:  conv.Answers,
	}); err != nil {
		return fmt.Errorf("log details: %w", err)
	}
	if !h.form.ScheduleOnStart() {
		if err := h.scheduleFollowup(ctx, conv); err != nil {
			return err
		}
	}
	slog.Info("questionnaire complete", "chat_id", h.chatID, "slot", conv.Slot, "mode", h.form.Mode())
	return h.DB.ClearConversation(ctx, h.chatID)
}

func (h *Handler) scheduleFollowup(ctx context.Context, conv *models.Conversation) error {
	e := models.FollowupEntry{
		ID:       h.newID(),
		ChatID:   h.chatID,
		Date:     conv.Date,
		Slot:     conv.Slot,
		OriginTS: conv.OriginTS,
		DueAt:    conv.OriginTS.Add(h.delay).UTC(),
	}
	if err := h.DB.AddFollowup(ctx, e); err != nil {
		return fmt.Errorf("schedule followup: %w", err)
	}
	slog.Info("followup scheduled", "chat_id", h.chatID, "entry_id", e.ID, "due", e.DueAt)
	return nil
}
