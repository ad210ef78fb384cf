package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"telegram-mood-tracker/internal/models"
)

// CheckFollowups sends at most one reminder per run: the newest due entry.
// Older due entries are closed without a send and any entry still awaiting
// an answer is superseded, so the user never has two open questions.
// Dispatch is marked only after a successful send, so a failed send is
// retried on the next run. Returns the number of reminders sent.
func (h *Handler) CheckFollowups(ctx context.Context) (int, error) {
	list, err := h.DB.ListFollowups(ctx, h.chatID)
	if err != nil {
		return 0, fmt.Errorf("list followups: %w", err)
	}
	now := h.now().UTC()

	i := newestDue(list, now)
	if i < 0 {
		return 0, nil
	}
	e := &list[i]
	if err := h.deliver(ctx, FollowupText(e.Slot, h.delay)); err != nil {
		return 0, fmt.Errorf("send followup %s: %w", e.ID, err)
	}
	if err := h.supersede(ctx, list, i, now); err != nil {
		return 1, err
	}

	e.Sent = true
	e.AwaitingResponse = true
	e.SentAt = &now
	if err := h.DB.UpdateFollowup(ctx, *e); err != nil {
		return 1, fmt.Errorf("mark followup %s sent: %w", e.ID, err)
	}
	slog.Info("followup dispatched", "chat_id", h.chatID, "entry_id", e.ID, "slot", e.Slot)
	return 1, nil
}

// newestDue returns the unsent entry with the latest due time not after
// now, later storage order winning ties, or -1.
func newestDue(list []models.FollowupEntry, now time.Time) int {
	best := -1
	for i, e := range list {
		if e.Sent || now.Before(e.DueAt) {
			continue
		}
		if best < 0 || !e.DueAt.Before(list[best].DueAt) {
			best = i
		}
	}
	return best
}

// supersede closes every entry other than keep that is awaiting an answer
// or already due, logging a row without a response for each.
func (h *Handler) supersede(ctx context.Context, list []models.FollowupEntry, keep int, now time.Time) error {
	for j := range list {
		o := &list[j]
		if j == keep {
			continue
		}
		dueUnsent := !o.Sent && !now.Before(o.DueAt)
		if !o.AwaitingResponse && !dueUnsent {
			continue
		}
		if err := h.Journal.AppendFollowup(ctx, models.FollowupRow{
			Date:         o.Date,
			Slot:         o.Slot,
			OriginTS:     o.OriginTS,
			SentAt:       localPtr(o.SentAt, h.loc),
			ResponseText: superseded,
		}); err != nil {
			return fmt.Errorf("log superseded followup: %w", err)
		}
		o.Sent = true
		o.AwaitingResponse = false
		if err := h.DB.UpdateFollowup(ctx, *o); err != nil {
			return fmt.Errorf("close followup %s: %w", o.ID, err)
		}
		slog.Info("followup superseded", "chat_id", h.chatID, "entry_id", o.ID, "sent", o.SentAt != nil)
	}
	return nil
}

// awaitingEntry picks the entry a reply answers: the earliest dispatched,
// then the earliest due, then storage order.
func awaitingEntry(list []models.FollowupEntry) int {
	var idx []int
	for i, e := range list {
		if e.Sent && e.AwaitingResponse {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return -1
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ea, eb := list[idx[a]], list[idx[b]]
		sa, sb := sentTime(ea), sentTime(eb)
		if !sa.Equal(sb) {
			return sa.Before(sb)
		}
		return ea.DueAt.Before(eb.DueAt)
	})
	return idx[0]
}

func sentTime(e models.FollowupEntry) time.Time {
	if e.SentAt == nil {
		return time.Time{}
	}
	return *e.SentAt
}

func (h *Handler) recordFollowupReply(ctx context.Context, list []models.FollowupEntry, yes bool, text string, at time.Time) error {
	i := awaitingEntry(list)
	if i < 0 {
		return nil
	}
	e := list[i]
	if err := h.Journal.AppendFollowup(ctx, models.FollowupRow{
		Date:         e.Date,
		Slot:         e.Slot,
		OriginTS:     e.OriginTS,
		SentAt:       localPtr(e.SentAt, h.loc),
		RespondedAt:  &at,
		Response:     &yes,
		ResponseText: text,
	}); err != nil {
		return fmt.Errorf("log followup response: %w", err)
	}
	e.AwaitingResponse = false
	if err := h.DB.UpdateFollowup(ctx, e); err != nil {
		return fmt.Errorf("close followup %s: %w", e.ID, err)
	}
	slog.Info("followup answered", "chat_id", h.chatID, "entry_id", e.ID, "yes", yes)
	h.notify(ctx, txtThanks)
	return nil
}

func localPtr(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	l := t.In(loc)
	return &l
}
