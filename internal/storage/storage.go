// Package storage keeps the working state of the bot: the update offset, the
// in-progress conversation per chat and the list of followup entries.
//
// Two backends satisfy Store: Files (JSON/text files in the state directory)
// and DB (sqlite). Both are single-writer; callers serialize invocations.
package storage

import (
	"context"
	"errors"

	"telegram-mood-tracker/internal/models"
)

var ErrFollowupNotFound = errors.New("storage: followup entry not found")

type Store interface {
	// LastUpdateID returns the highest processed update identifier, 0 if none.
	LastUpdateID(ctx context.Context) (int, error)
	SaveLastUpdateID(ctx context.Context, id int) error

	// GetConversation returns nil when the chat has no conversation.
	GetConversation(ctx context.Context, chatID int64) (*models.Conversation, error)
	// SetConversation replaces whatever conversation the chat had.
	SetConversation(ctx context.Context, c *models.Conversation) error
	ClearConversation(ctx context.Context, chatID int64) error

	// ListFollowups returns the chat's entries in storage order.
	ListFollowups(ctx context.Context, chatID int64) ([]models.FollowupEntry, error)
	AddFollowup(ctx context.Context, e models.FollowupEntry) error
	// UpdateFollowup overwrites the entry with the same ID.
	UpdateFollowup(ctx context.Context, e models.FollowupEntry) error
}
