package messages

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-mood-tracker/internal/models"
)

const fetchLimit = 100

// Client talks to the Telegram bot API: plain text sends and short getUpdates polls.
type Client struct {
	api *tgbotapi.BotAPI
}

func New(token string, timeout time.Duration) (*Client, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return &Client{api: api}, nil
}

func (c *Client) Send(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// Fetch returns the updates with identifiers >= offset. It never long-polls.
func (c *Client) Fetch(ctx context.Context, offset int) ([]models.Incoming, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	updates, err := c.api.GetUpdates(tgbotapi.UpdateConfig{Offset: offset, Limit: fetchLimit})
	if err != nil {
		return nil, fmt.Errorf("telegram getUpdates: %w", err)
	}
	out := make([]models.Incoming, 0, len(updates))
	for _, u := range updates {
		out = append(out, toIncoming(u))
	}
	return out, nil
}

// toIncoming keeps the update id of every update; only (edited) messages
// carry a chat and text.
func toIncoming(u tgbotapi.Update) models.Incoming {
	in := models.Incoming{UpdateID: u.UpdateID}
	m := u.Message
	if m == nil {
		m = u.EditedMessage
	}
	if m == nil {
		return in
	}
	if m.Chat != nil {
		in.ChatID = m.Chat.ID
	}
	in.Text = m.Text
	in.Date = time.Unix(int64(m.Date), 0).UTC()
	return in
}
