package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"telegram-mood-tracker/internal/handlers"
	"telegram-mood-tracker/internal/models"
	"telegram-mood-tracker/internal/scheduler"
)

func (a *app) newRemindCmd() *cobra.Command {
	var slotArg string
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Send the check-in prompt for one slot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			slot, ok := handlers.ParseSlot(slotArg)
			if !ok {
				return fmt.Errorf("unknown slot %q (want 09:00, 15:00 or 21:00)", slotArg)
			}
			return a.locked(cmd.Context(), true, func(ctx context.Context, h *handlers.Handler) error {
				return h.SendReminder(ctx, slot)
			})
		},
	}
	cmd.Flags().StringVar(&slotArg, "slot", "", "Slot to remind about (9, 15, 21 or HH:MM).")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func (a *app) newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Fetch new replies, update state and write log rows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.locked(cmd.Context(), true, func(ctx context.Context, h *handlers.Handler) error {
				res, err := h.Poll(ctx)
				if err != nil {
					return err
				}
				slog.Info("poll done",
					"fetched", res.Fetched,
					"handled", res.Handled,
					"ignored", res.Ignored,
					"offset_old", res.OffsetOld,
					"offset_new", res.OffsetNew,
				)
				return nil
			})
		},
	}
}

func (a *app) newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask",
		Short: "Send the next pending questionnaire prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.locked(cmd.Context(), true, func(ctx context.Context, h *handlers.Handler) error {
				n, err := h.AskQuestions(ctx)
				if err == nil {
					slog.Info("ask done", "sent", n)
				}
				return err
			})
		},
	}
}

func (a *app) newFollowupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "followups",
		Short: "Send due followup reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.locked(cmd.Context(), true, func(ctx context.Context, h *handlers.Handler) error {
				n, err := h.CheckFollowups(ctx)
				if err == nil {
					slog.Info("followups done", "sent", n)
				}
				return err
			})
		},
	}
}

func (a *app) newTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Run poll, ask and followups once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.locked(cmd.Context(), true, func(ctx context.Context, h *handlers.Handler) error {
				return h.Tick(ctx)
			})
		},
	}
}

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run reminders and ticks on an in-process schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			h, closeFn, err := a.open(true)
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := scheduler.Start(ctx, h, scheduler.Options{
				Location:     a.cfg.Location,
				PollInterval: a.cfg.PollInterval,
				LockDir:      a.cfg.StateDir,
			})
			if err != nil {
				return err
			}
			slog.Info("serving",
				"chat_id", a.cfg.ChatID,
				"timezone", a.cfg.Location.String(),
				"backend", a.cfg.StoreBackend,
				"mode", a.cfg.QuestionnaireMode,
			)

			<-ctx.Done()
			slog.Info("shutting down")
			return s.Shutdown()
		},
	}
}

func (a *app) newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop the in-progress questionnaire",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.locked(cmd.Context(), false, func(ctx context.Context, h *handlers.Handler) error {
				if err := h.Reset(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "conversation cleared")
				return err
			})
		},
	}
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the offset, the open questionnaire and followups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.locked(cmd.Context(), false, func(ctx context.Context, h *handlers.Handler) error {
				st, err := h.Status(ctx)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
}

func printStatus(w io.Writer, st handlers.Status) {
	fmt.Fprintf(w, "offset: %d\n", st.Offset)
	if c := st.Conversation; c != nil && c.Active {
		fmt.Fprintf(w, "conversation: %s %s step %d/%d (%s)\n",
			c.Date, c.Slot, c.Step, len(models.QuestionStates), models.StateForStep(c.Step))
	} else {
		fmt.Fprintln(w, "conversation: none")
	}
	fmt.Fprintf(w, "followups: %d\n", len(st.Followups))
	for _, e := range st.Followups {
		state := "scheduled"
		switch {
		case e.Sent && e.AwaitingResponse:
			state = "awaiting"
		case e.Sent:
			state = "closed"
		}
		fmt.Fprintf(w, "  %s %s %s due %s %s\n", e.ID, e.Date, e.Slot, e.DueAt.Format("2006-01-02T15:04Z07:00"), state)
	}
}
