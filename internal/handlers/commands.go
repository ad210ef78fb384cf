package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"telegram-mood-tracker/internal/models"
)

// SendReminder sends the check-in prompt for slot.
func (h *Handler) SendReminder(ctx context.Context, slot models.Slot) error {
	day := h.now().In(h.loc).Format(dateLayout)
	if err := h.deliver(ctx, ReminderText(day, slot)); err != nil {
		return fmt.Errorf("send reminder %s: %w", slot, err)
	}
	slog.Info("reminder sent", "chat_id", h.chatID, "slot", slot)
	return nil
}

// AskQuestions sends whatever prompt the active questionnaire still owes.
// last_question_sent_step is written only after the sends succeed, so
// repeated runs never send the same question twice.
func (h *Handler) AskQuestions(ctx context.Context) (int, error) {
	conv, err := h.DB.GetConversation(ctx, h.chatID)
	if err != nil {
		return 0, err
	}
	if conv == nil || !conv.Active {
		return 0, nil
	}
	prompts := h.form.Pending(conv)
	if len(prompts) == 0 {
		return 0, nil
	}
	for _, p := range prompts {
		if err := h.deliver(ctx, p); err != nil {
			return 0, fmt.Errorf("send question %d: %w", conv.Step, err)
		}
	}
	conv.LastQuestionSent = conv.Step
	if err := h.DB.SetConversation(ctx, conv); err != nil {
		return len(prompts), err
	}
	slog.Info("questions sent", "chat_id", h.chatID, "step", conv.Step, "count", len(prompts))
	return len(prompts), nil
}

// Reset drops the in-progress conversation; logs and followups stay.
func (h *Handler) Reset(ctx context.Context) error {
	return h.DB.ClearConversation(ctx, h.chatID)
}

type Status struct {
	Offset       int
	Conversation *models.Conversation
	Followups    []models.FollowupEntry
}

func (h *Handler) Status(ctx context.Context) (Status, error) {
	var st Status
	var err error
	if st.Offset, err = h.DB.LastUpdateID(ctx); err != nil {
		return st, err
	}
	if st.Conversation, err = h.DB.GetConversation(ctx, h.chatID); err != nil {
		return st, err
	}
	st.Followups, err = h.DB.ListFollowups(ctx, h.chatID)
	return st, err
}

// Tick runs one full cycle: poll, ask, followups. A poll failure stops the
// cycle; ask and followup failures are reported after both have run.
func (h *Handler) Tick(ctx context.Context) error {
	res, err := h.Poll(ctx)
	if err != nil {
		return err
	}
	slog.Debug("poll done", "fetched", res.Fetched, "handled", res.Handled, "offset", res.OffsetNew)

	_, askErr := h.AskQuestions(ctx)
	if askErr != nil {
		slog.Error("ask questions failed", "error", askErr)
	}
	_, fuErr := h.CheckFollowups(ctx)
	if fuErr != nil {
		slog.Error("check followups failed", "error", fuErr)
	}
	return errors.Join(askErr, fuErr)
}
