package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/types"
)

type userChatsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserChatsRepo(db *gorm.DB, baseLog *logger.Logger) UserChatsRepo {
	return &userChatsRepo{
		db:  db,
		log: baseLog.With("repo", "UserChatsRepo"),
	}
}

func (ucr *userChatsRepo) GetByUserID(ctx context.Context, userID string) (*types.UserChats, error) {
	var uc types.UserChats
	if err := ucr.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&uc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrUserChatsNotFound
		}
		ucr.log.Error("failed to get user chats", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user chats: %w", err)
	}
	if uc.Chats == nil {
		uc.Chats = []types.ChatSummary{}
	}
	return &uc, nil
}

func (ucr *userChatsRepo) Create(ctx context.Context, userChats *types.UserChats) (*types.UserChats, error) {
	if userChats.Chats == nil {
		userChats.Chats = []types.ChatSummary{}
	}
	now := time.Now().UTC()
	userChats.CreatedAt = now
	userChats.UpdatedAt = now
	if err := ucr.db.WithContext(ctx).Create(userChats).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, types.ErrUserChatsExists
		}
		ucr.log.Error("failed to create user chats", "user_id", userChats.UserID, "error", err)
		return nil, fmt.Errorf("failed to create user chats: %w", err)
	}
	return userChats, nil
}

func (ucr *userChatsRepo) AppendChat(ctx context.Context, userID string, summary types.ChatSummary) error {
	return ucr.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var uc types.UserChats
		if err := lockForUpdate(tx).
			Where("user_id = ?", userID).
			First(&uc).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUserChatsNotFound
			}
			ucr.log.Error("failed to load user chats for append", "user_id", userID, "error", err)
			return fmt.Errorf("failed to load user chats for append: %w", err)
		}
		chats := append(uc.Chats, summary)
		if err := tx.Model(&types.UserChats{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"chats":      chats,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			ucr.log.Error("failed to append chat summary", "user_id", userID, "error", err)
			return fmt.Errorf("failed to append chat summary: %w", err)
		}
		return nil
	})
}
