// Package journal appends the three mood logs as CSV files. Rows are never
// rewritten; each file gets its header before the first row.
package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"telegram-mood-tracker/internal/models"
)

const (
	MainFileName      = "mood_log.csv"
	DetailsFileName   = "mood_details.csv"
	FollowupsFileName = "mood_followups.csv"
)

var (
	MainHeader      = []string{"date", "slot", "answer", "telegram_message_ts", "action_suggested"}
	DetailsHeader   = []string{"date", "slot", "origin_ts", "duration_h", "reason", "thoughts", "desire", "choice"}
	FollowupsHeader = []string{"date", "slot", "origin_ts", "followup_sent_ts", "followup_response_ts", "response", "response_text"}
)

type CSV struct {
	MainPath      string
	DetailsPath   string
	FollowupsPath string
}

// New lays the logs out in dataDir; mainPath overrides the main log location when not empty.
func New(dataDir, mainPath string) *CSV {
	if mainPath == "" {
		mainPath = filepath.Join(dataDir, MainFileName)
	}
	return &CSV{
		MainPath:      mainPath,
		DetailsPath:   filepath.Join(dataDir, DetailsFileName),
		FollowupsPath: filepath.Join(dataDir, FollowupsFileName),
	}
}

// EnsureHeaders creates every log file that does not exist yet.
func (j *CSV) EnsureHeaders() error {
	for _, f := range []struct {
		path   string
		header []string
	}{
		{j.MainPath, MainHeader},
		{j.DetailsPath, DetailsHeader},
		{j.FollowupsPath, FollowupsHeader},
	} {
		if err := ensureHeader(f.path, f.header); err != nil {
			return err
		}
	}
	return nil
}

func ensureHeader(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return appendRecord(path, header)
}

func appendRecord(path string, rec []string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(rec); err != nil {
		return fmt.Errorf("write log %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush log %s: %w", path, err)
	}
	return nil
}

func (j *CSV) appendRow(path string, header, rec []string) error {
	if err := ensureHeader(path, header); err != nil {
		return err
	}
	return appendRecord(path, rec)
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func tsPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return ts(*t)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func (j *CSV) AppendMain(ctx context.Context, r models.MainRow) error {
	return j.appendRow(j.MainPath, MainHeader, []string{
		r.Date, string(r.Slot), flag(r.Answer), ts(r.MessageTS), r.Action,
	})
}

func (j *CSV) AppendDetails(ctx context.Context, r models.DetailsRow) error {
	a := r.Answers
	return j.appendRow(j.DetailsPath, DetailsHeader, []string{
		r.Date, string(r.Slot), ts(r.OriginTS), a.DurationH, a.Reason, a.Thoughts, a.Desire, a.Choice,
	})
}

func (j *CSV) AppendFollowup(ctx context.Context, r models.FollowupRow) error {
	resp := ""
	if r.Response != nil {
		resp = flag(*r.Response)
	}
	return j.appendRow(j.FollowupsPath, FollowupsHeader, []string{
		r.Date, string(r.Slot), ts(r.OriginTS), tsPtr(r.SentAt), tsPtr(r.RespondedAt), resp, r.ResponseText,
	})
}
