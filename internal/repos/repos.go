package repos

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/racon-ai/racon-backend/internal/types"
)

// ChatRepo stores chat documents. Every lookup and write is scoped by owner, so
// a chat owned by someone else is indistinguishable from a missing one.
type ChatRepo interface {
	Create(ctx context.Context, chat *types.Chat) (*types.Chat, error)
	GetByIDForUser(ctx context.Context, chatID, userID string) (*types.Chat, error)
	// AppendTurns pushes turns onto the end of the history in one atomic
	// write. Returns types.ErrChatNotFound when no chat matches.
	AppendTurns(ctx context.Context, chatID, userID string, turns []types.Turn) error
}

// UserChatsRepo stores the per-user chat index.
type UserChatsRepo interface {
	GetByUserID(ctx context.Context, userID string) (*types.UserChats, error)
	// Create returns types.ErrUserChatsExists if an index already exists.
	Create(ctx context.Context, userChats *types.UserChats) (*types.UserChats, error)
	AppendChat(ctx context.Context, userID string, summary types.ChatSummary) error
}

func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

