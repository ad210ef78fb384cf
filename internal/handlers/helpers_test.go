package handlers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"telegram-mood-tracker/internal/journal"
	"telegram-mood-tracker/internal/models"
	"telegram-mood-tracker/internal/storage"
)

const testChat int64 = 777

var helsinki = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		return time.FixedZone("EEST", 3*3600)
	}
	return loc
}()

type fakeBot struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (b *fakeBot) Send(_ context.Context, chatID int64, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if chatID != testChat {
		return fmt.Errorf("unexpected chat %d", chatID)
	}
	if b.fail {
		return errors.New("telegram: 401 unauthorized")
	}
	b.sent = append(b.sent, text)
	return nil
}

func (b *fakeBot) Sent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.sent...)
}

type fakeFeed struct {
	updates []models.Incoming
	err     error
	offsets []int
}

func (f *fakeFeed) Fetch(_ context.Context, offset int) ([]models.Incoming, error) {
	f.offsets = append(f.offsets, offset)
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Incoming
	for _, u := range f.updates {
		if u.UpdateID >= offset {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeFeed) push(id int, text string, at time.Time) {
	f.updates = append(f.updates, models.Incoming{UpdateID: id, ChatID: testChat, Text: text, Date: at})
}

type memJournal struct {
	main      []models.MainRow
	details   []models.DetailsRow
	followups []models.FollowupRow

	// failMainAt makes the n-th AppendMain call fail (1-based, 0 = never).
	failMainAt int
	mainCalls  int
}

func (j *memJournal) AppendMain(_ context.Context, r models.MainRow) error {
	j.mainCalls++
	if j.mainCalls == j.failMainAt {
		return errors.New("disk full")
	}
	j.main = append(j.main, r)
	return nil
}

func (j *memJournal) AppendDetails(_ context.Context, r models.DetailsRow) error {
	j.details = append(j.details, r)
	return nil
}

func (j *memJournal) AppendFollowup(_ context.Context, r models.FollowupRow) error {
	j.followups = append(j.followups, r)
	return nil
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type env struct {
	h       *Handler
	bot     *fakeBot
	feed    *fakeFeed
	store   storage.Store
	journal *memJournal
	clock   *clock
}

func newEnv(t *testing.T, form Questionnaire) *env {
	t.Helper()
	e := &env{
		bot:     &fakeBot{},
		feed:    &fakeFeed{},
		store:   storage.NewFiles(t.TempDir(), ""),
		journal: &memJournal{},
		clock:   &clock{t: time.Date(2025, 8, 1, 18, 0, 0, 0, time.UTC)},
	}
	n := 0
	e.h = NewHandler(e.bot, e.feed, e.store, e.journal, Options{
		ChatID:        testChat,
		Location:      helsinki,
		FollowupDelay: time.Hour,
		Questionnaire: form,
		Now:           e.clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("fu-%d", n)
		},
	})
	return e
}

// say feeds one message stamped with the current fake time and polls.
func (e *env) say(t *testing.T, id int, text string) PollResult {
	t.Helper()
	e.feed.push(id, text, e.clock.Now())
	res, err := e.h.Poll(context.Background())
	require.NoError(t, err)
	return res
}

func newCSVJournal(t *testing.T) *journal.CSV {
	t.Helper()
	return journal.New(filepath.Join(t.TempDir(), "data"), "")
}
