package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"telegram-mood-tracker/internal/models"
)

//go:embed schema.sql
var ddl embed.FS

// DB is the sqlite Store. It also keeps the three logs as tables.
type DB struct{ *sql.DB }

func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &DB{db}, nil
}

func migrate(db *sql.DB) error {
	b, err := ddl.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(b))
	return err
}

func formatTS(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTSPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTS(*t)
}

func parseTS(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d *DB) LastUpdateID(ctx context.Context) (int, error) {
	var id int
	err := d.QueryRowContext(ctx, `SELECT last_update_id FROM offsets WHERE id = 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

// SaveLastUpdateID never moves the stored offset backwards.
func (d *DB) SaveLastUpdateID(ctx context.Context, id int) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO offsets (id, last_update_id) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET last_update_id = max(last_update_id, excluded.last_update_id)
    `, id)
	return err
}

func (d *DB) GetConversation(ctx context.Context, chatID int64) (*models.Conversation, error) {
	var raw string
	err := d.QueryRowContext(ctx, `SELECT state FROM conversations WHERE chat_id = ?`, chatID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c models.Conversation
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		slog.Warn("DB: malformed conversation row, ignoring", "chat_id", chatID, "error", err)
		return nil, nil
	}
	c.ChatID = chatID
	return &c, nil
}

func (d *DB) SetConversation(ctx context.Context, c *models.Conversation) error {
	if c == nil {
		return fmt.Errorf("set conversation: nil")
	}
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = d.ExecContext(ctx, `
        INSERT INTO conversations (chat_id, state) VALUES (?, ?)
        ON CONFLICT(chat_id) DO UPDATE SET state = excluded.state
    `, c.ChatID, string(b))
	return err
}

func (d *DB) ClearConversation(ctx context.Context, chatID int64) error {
	_, err := d.ExecContext(ctx, `DELETE FROM conversations WHERE chat_id = ?`, chatID)
	return err
}

func (d *DB) ListFollowups(ctx context.Context, chatID int64) ([]models.FollowupEntry, error) {
	rows, err := d.QueryContext(ctx, `
        SELECT id, chat_id, date, slot, origin_ts, due_ts_utc, sent, awaiting_response, followup_sent_ts
        FROM followups WHERE chat_id = ? ORDER BY seq`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []models.FollowupEntry
	for rows.Next() {
		var (
			e               models.FollowupEntry
			slot, orig, due string
			sentAt          sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ChatID, &e.Date, &slot, &orig, &due,
			&e.Sent, &e.AwaitingResponse, &sentAt); err != nil {
			return nil, err
		}
		e.Slot = models.Slot(slot)
		e.OriginTS = parseTS(orig)
		e.DueAt = parseTS(due)
		if sentAt.Valid && sentAt.String != "" {
			t := parseTS(sentAt.String)
			e.SentAt = &t
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (d *DB) AddFollowup(ctx context.Context, e models.FollowupEntry) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO followups
          (id, chat_id, date, slot, origin_ts, due_ts_utc, sent, awaiting_response, followup_sent_ts)
        VALUES (?,?,?,?,?,?,?,?,?)
    `, e.ID, e.ChatID, e.Date, string(e.Slot), formatTS(e.OriginTS), formatTS(e.DueAt.UTC()),
		e.Sent, e.AwaitingResponse, nullString(formatTSPtr(e.SentAt)))
	return err
}

func (d *DB) UpdateFollowup(ctx context.Context, e models.FollowupEntry) error {
	res, err := d.ExecContext(ctx, `
        UPDATE followups
        SET sent = ?, awaiting_response = ?, followup_sent_ts = ?, due_ts_utc = ?
        WHERE id = ?
    `, e.Sent, e.AwaitingResponse, nullString(formatTSPtr(e.SentAt)), formatTS(e.DueAt.UTC()), e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrFollowupNotFound, e.ID)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (d *DB) AppendMain(ctx context.Context, r models.MainRow) error {
	_, err := d.ExecContext(ctx, `
        INSERT INTO mood_log (date, slot, answer, telegram_message_ts, action_suggested)
        VALUES (?,?,?,?,?)
    `, r.Date, string(r.Slot), r.Answer, formatTS(r.MessageTS), r.Action)
	return err
}

func (d *DB) AppendDetails(ctx context.Context, r models.DetailsRow) error {
	a := r.Answers
	_, err := d.ExecContext(ctx, `
        INSERT INTO mood_details (date, slot, origin_ts, duration_h, reason, thoughts, desire, choice)
        VALUES (?,?,?,?,?,?,?,?)
    `, r.Date, string(r.Slot), formatTS(r.OriginTS), a.DurationH, a.Reason, a.Thoughts, a.Desire, a.Choice)
	return err
}

func (d *DB) AppendFollowup(ctx context.Context, r models.FollowupRow) error {
	resp := ""
	if r.Response != nil {
		resp = "0"
		if *r.Response {
			resp = "1"
		}
	}
	_, err := d.ExecContext(ctx, `
        INSERT INTO mood_followups
          (date, slot, origin_ts, followup_sent_ts, followup_response_ts, response, response_text)
        VALUES (?,?,?,?,?,?,?)
    `, r.Date, string(r.Slot), formatTS(r.OriginTS), formatTSPtr(r.SentAt), formatTSPtr(r.RespondedAt),
		resp, r.ResponseText)
	return err
}
