package cli

import (
	"context"
	"fmt"

	"telegram-mood-tracker/internal/config"
	"telegram-mood-tracker/internal/fsstore"
	"telegram-mood-tracker/internal/handlers"
	"telegram-mood-tracker/internal/journal"
	"telegram-mood-tracker/internal/messages"
	"telegram-mood-tracker/internal/storage"
)

// open wires the engine for the configured backend. withBot is false for
// commands that only touch local state.
func (a *app) open(withBot bool) (*handlers.Handler, func() error, error) {
	cfg := a.cfg
	closer := func() error { return nil }

	form, err := handlers.NewQuestionnaire(cfg.QuestionnaireMode)
	if err != nil {
		return nil, nil, err
	}

	var (
		bot  handlers.Sender
		feed handlers.Feed
	)
	if withBot {
		if err := cfg.RequireTelegram(); err != nil {
			return nil, nil, err
		}
		client, err := messages.New(cfg.TelegramToken, cfg.RequestTimeout)
		if err != nil {
			return nil, nil, err
		}
		bot, feed = client, client
	}

	var (
		store storage.Store
		j     handlers.Journal
	)
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		db, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.DBPath, err)
		}
		store, j, closer = db, db, db.Close
	default:
		csv := journal.New(cfg.DataDir, cfg.LogFile)
		if err := csv.EnsureHeaders(); err != nil {
			return nil, nil, err
		}
		store, j = storage.NewFiles(cfg.StateDir, cfg.StateFile), csv
	}

	h := handlers.NewHandler(bot, feed, store, j, handlers.Options{
		ChatID:        cfg.ChatID,
		Location:      cfg.Location,
		FollowupDelay: cfg.FollowupDelay,
		Questionnaire: form,
	})
	return h, closer, nil
}

// locked runs fn against a fresh engine while holding the state lock, so
// overlapping cron invocations run one after another.
func (a *app) locked(ctx context.Context, withBot bool, fn func(ctx context.Context, h *handlers.Handler) error) error {
	lockCtx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	return fsstore.WithLock(lockCtx, a.cfg.StateDir, func() error {
		h, closeFn, err := a.open(withBot)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, h)
	})
}
