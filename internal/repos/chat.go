package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/types"
)

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	return &chatRepo{
		db:  db,
		log: baseLog.With("repo", "ChatRepo"),
	}
}

func (cr *chatRepo) Create(ctx context.Context, chat *types.Chat) (*types.Chat, error) {
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	if chat.History == nil {
		chat.History = []types.Turn{}
	}
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if err := cr.db.WithContext(ctx).Create(chat).Error; err != nil {
		cr.log.Error("failed to create chat", "error", err)
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

func (cr *chatRepo) GetByIDForUser(ctx context.Context, chatID, userID string) (*types.Chat, error) {
	var chat types.Chat
	if err := cr.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", chatID, userID).
		First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrChatNotFound
		}
		cr.log.Error("failed to get chat", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

func (cr *chatRepo) AppendTurns(ctx context.Context, chatID, userID string, turns []types.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return cr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chat types.Chat
		if err := lockForUpdate(tx).
			Where("id = ? AND user_id = ?", chatID, userID).
			First(&chat).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrChatNotFound
			}
			cr.log.Error("failed to load chat for append", "chat_id", chatID, "error", err)
			return fmt.Errorf("failed to load chat for append: %w", err)
		}
		history := append(chat.History, turns...)
		if err := tx.Model(&types.Chat{}).
			Where("id = ? AND user_id = ?", chatID, userID).
			Updates(map[string]interface{}{
				"history":    history,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			cr.log.Error("failed to append turns", "chat_id", chatID, "error", err)
			return fmt.Errorf("failed to append turns: %w", err)
		}
		return nil
	})
}
