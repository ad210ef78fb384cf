package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-mood-tracker/internal/handlers"
	"telegram-mood-tracker/internal/models"
	"telegram-mood-tracker/internal/storage"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusAndReset(t *testing.T) {
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	stateDir := t.TempDir()
	dataDir := t.TempDir()

	store := storage.NewFiles(stateDir, "")
	ctx := context.Background()
	require.NoError(t, store.SaveLastUpdateID(ctx, 17))
	require.NoError(t, store.SetConversation(ctx, &models.Conversation{
		ChatID: 42, Active: true, Slot: models.SlotEvening, Date: "2025-08-01", Step: 2,
	}))
	require.NoError(t, store.AddFollowup(ctx, models.FollowupEntry{
		ID: "fu-1", ChatID: 42, Date: "2025-08-01", Slot: models.SlotMorning,
		DueAt: time.Date(2025, 8, 1, 7, 0, 0, 0, time.UTC),
	}))

	out, err := run(t, "status", "--state-dir", stateDir, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "offset: 17")
	assert.Contains(t, out, "conversation: 2025-08-01 21:00 step 2/5 (thoughts)")
	assert.Contains(t, out, "fu-1 2025-08-01 09:00 due 2025-08-01T07:00Z scheduled")
	assert.FileExists(t, filepath.Join(dataDir, "mood_log.csv"))

	out, err = run(t, "reset", "--state-dir", stateDir, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "conversation cleared")

	out, err = run(t, "status", "--state-dir", stateDir, "--data-dir", dataDir)
	require.NoError(t, err)
	assert.Contains(t, out, "conversation: none")
}

func TestStatusSQLite(t *testing.T) {
	stateDir := t.TempDir()
	out, err := run(t, "status", "--backend", "sqlite", "--state-dir", stateDir, "--data-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "offset: 0")
	assert.FileExists(t, filepath.Join(stateDir, "moodbot.db"))
}

func TestRemindRejectsUnknownSlot(t *testing.T) {
	_, err := run(t, "remind", "--slot", "10", "--state-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown slot")
}

func TestBadConfigFails(t *testing.T) {
	_, err := run(t, "status", "--backend", "redis", "--state-dir", t.TempDir())
	assert.Error(t, err)
	_, err = run(t, "status", "--mode", "both", "--state-dir", t.TempDir(), "--data-dir", t.TempDir())
	assert.Error(t, err)
}

func TestPrintStatusStates(t *testing.T) {
	sent := time.Date(2025, 8, 1, 7, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	printStatus(&buf, handlers.Status{Followups: []models.FollowupEntry{
		{ID: "a", Sent: true, AwaitingResponse: true, SentAt: &sent},
		{ID: "b", Sent: true, SentAt: &sent},
	}})
	assert.Contains(t, buf.String(), "followups: 2")
	assert.Contains(t, buf.String(), "awaiting")
	assert.Contains(t, buf.String(), "closed")
}
