package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"

	"telegram-mood-tracker/internal/fsstore"
	"telegram-mood-tracker/internal/models"
)

const (
	OffsetFileName    = "last_update_id.txt"
	ConvoFileName     = "convo_state.json"
	FollowupsFileName = "followups.json"
)

// Files is the flat-file Store. Unreadable or malformed files read as empty.
type Files struct {
	OffsetPath    string
	ConvoPath     string
	FollowupsPath string
}

type followupBook struct {
	Pending []models.FollowupEntry `json:"pending"`
}

// NewFiles lays the state files out in stateDir. offsetPath overrides the
// offset file location when not empty.
func NewFiles(stateDir, offsetPath string) *Files {
	if offsetPath == "" {
		offsetPath = filepath.Join(stateDir, OffsetFileName)
	}
	return &Files{
		OffsetPath:    offsetPath,
		ConvoPath:     filepath.Join(stateDir, ConvoFileName),
		FollowupsPath: filepath.Join(stateDir, FollowupsFileName),
	}
}

func (f *Files) LastUpdateID(ctx context.Context) (int, error) {
	txt, ok, err := fsstore.ReadText(f.OffsetPath)
	if err != nil {
		return 0, err
	}
	if !ok || txt == "" {
		return 0, nil
	}
	id, err := strconv.Atoi(txt)
	if err != nil {
		slog.Warn("Files: malformed offset, starting from 0", "path", f.OffsetPath, "value", txt)
		return 0, nil
	}
	return id, nil
}

func (f *Files) SaveLastUpdateID(ctx context.Context, id int) error {
	return fsstore.WriteText(f.OffsetPath, strconv.Itoa(id))
}

func (f *Files) readConvos() (map[string]*models.Conversation, error) {
	state := map[string]*models.Conversation{}
	if _, err := fsstore.ReadJSON(f.ConvoPath, &state); err != nil {
		if !errors.Is(err, fsstore.ErrDecodeFailed) {
			return nil, err
		}
		slog.Warn("Files: malformed conversation state, using empty", "path", f.ConvoPath, "error", err)
		state = map[string]*models.Conversation{}
	}
	return state, nil
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (f *Files) GetConversation(ctx context.Context, chatID int64) (*models.Conversation, error) {
	state, err := f.readConvos()
	if err != nil {
		return nil, err
	}
	c := state[chatKey(chatID)]
	if c != nil && c.ChatID == 0 {
		c.ChatID = chatID
	}
	return c, nil
}

func (f *Files) SetConversation(ctx context.Context, c *models.Conversation) error {
	if c == nil {
		return fmt.Errorf("set conversation: nil")
	}
	state, err := f.readConvos()
	if err != nil {
		return err
	}
	state[chatKey(c.ChatID)] = c
	return fsstore.WriteJSON(f.ConvoPath, state)
}

func (f *Files) ClearConversation(ctx context.Context, chatID int64) error {
	state, err := f.readConvos()
	if err != nil {
		return err
	}
	if _, ok := state[chatKey(chatID)]; !ok {
		return nil
	}
	delete(state, chatKey(chatID))
	return fsstore.WriteJSON(f.ConvoPath, state)
}

func (f *Files) readBook() (*followupBook, error) {
	var book followupBook
	if _, err := fsstore.ReadJSON(f.FollowupsPath, &book); err != nil {
		if !errors.Is(err, fsstore.ErrDecodeFailed) {
			return nil, err
		}
		slog.Warn("Files: malformed followups, using empty", "path", f.FollowupsPath, "error", err)
		book = followupBook{}
	}
	if book.Pending == nil {
		book.Pending = []models.FollowupEntry{}
	}
	return &book, nil
}

func (f *Files) ListFollowups(ctx context.Context, chatID int64) ([]models.FollowupEntry, error) {
	book, err := f.readBook()
	if err != nil {
		return nil, err
	}
	var res []models.FollowupEntry
	for _, e := range book.Pending {
		if e.ChatID == chatID {
			res = append(res, e)
		}
	}
	return res, nil
}

func (f *Files) AddFollowup(ctx context.Context, e models.FollowupEntry) error {
	book, err := f.readBook()
	if err != nil {
		return err
	}
	book.Pending = append(book.Pending, e)
	return fsstore.WriteJSON(f.FollowupsPath, book)
}

func (f *Files) UpdateFollowup(ctx context.Context, e models.FollowupEntry) error {
	book, err := f.readBook()
	if err != nil {
		return err
	}
	for i := range book.Pending {
		if book.Pending[i].ID == e.ID {
			book.Pending[i] = e
			return fsstore.WriteJSON(f.FollowupsPath, book)
		}
	}
	return fmt.Errorf("%w: %s", ErrFollowupNotFound, e.ID)
}
