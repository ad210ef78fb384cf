package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"telegram-mood-tracker/internal/fsstore"
	"telegram-mood-tracker/internal/models"
)

// Runner is the part of the engine the scheduler drives.
type Runner interface {
	SendReminder(ctx context.Context, slot models.Slot) error
	Tick(ctx context.Context) error
}

type Options struct {
	Location     *time.Location
	PollInterval time.Duration
	// LockDir is the state directory; every job holds its lock while running.
	LockDir string
}

// Start registers the daily slot reminders and the periodic tick and starts
// the scheduler. Jobs never overlap themselves.
func Start(ctx context.Context, r Runner, opts Options) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(opts.Location))
	if err != nil {
		return nil, err
	}

	for _, slot := range models.Slots {
		h, m, err := slotClock(slot)
		if err != nil {
			return nil, err
		}
		_, err = s.NewJob(
			gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(h, m, 0))),
			gocron.NewTask(func() {
				run(ctx, opts, "remind "+string(slot), func(ctx context.Context) error {
					return r.SendReminder(ctx, slot)
				})
			}),
			gocron.WithName("remind-"+string(slot)),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return nil, fmt.Errorf("register reminder %s: %w", slot, err)
		}
	}

	_, err = s.NewJob(
		gocron.DurationJob(opts.PollInterval),
		gocron.NewTask(func() {
			run(ctx, opts, "tick", r.Tick)
		}),
		gocron.WithName("tick"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("register tick: %w", err)
	}

	s.Start()
	return s, nil
}

// run executes one job under the state lock. A job that cannot get the
// lock within one poll interval is skipped.
func run(ctx context.Context, opts Options, name string, fn func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	lockCtx, cancel := context.WithTimeout(ctx, opts.PollInterval)
	defer cancel()

	start := time.Now()
	err := fsstore.WithLock(lockCtx, opts.LockDir, func() error { return fn(ctx) })
	if err != nil {
		slog.Error("job failed", "job", name, "error", err)
		return
	}
	slog.Debug("job done", "job", name, "took", time.Since(start))
}

func slotClock(slot models.Slot) (uint, uint, error) {
	hh, mm, ok := strings.Cut(string(slot), ":")
	if !ok {
		return 0, 0, fmt.Errorf("bad slot %q", slot)
	}
	h, err := strconv.ParseUint(hh, 10, 8)
	if err != nil || h > 23 {
		return 0, 0, fmt.Errorf("bad slot hour %q", slot)
	}
	m, err := strconv.ParseUint(mm, 10, 8)
	if err != nil || m > 59 {
		return 0, 0, fmt.Errorf("bad slot minute %q", slot)
	}
	return uint(h), uint(m), nil
}
