package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/types"
)

type mongoUserChatsRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewMongoUserChatsRepo(db *mongo.Database, collection string, baseLog *logger.Logger) UserChatsRepo {
	return &mongoUserChatsRepo{
		coll: db.Collection(collection),
		log:  baseLog.With("repo", "MongoUserChatsRepo"),
	}
}

func (r *mongoUserChatsRepo) GetByUserID(ctx context.Context, userID string) (*types.UserChats, error) {
	var uc types.UserChats
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID}).Decode(&uc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrUserChatsNotFound
		}
		r.log.Error("failed to find user chats", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to find user chats: %w", err)
	}
	if uc.Chats == nil {
		uc.Chats = []types.ChatSummary{}
	}
	return &uc, nil
}

func (r *mongoUserChatsRepo) Create(ctx context.Context, userChats *types.UserChats) (*types.UserChats, error) {
	if userChats.Chats == nil {
		userChats.Chats = []types.ChatSummary{}
	}
	now := time.Now().UTC()
	userChats.CreatedAt = now
	userChats.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, userChats); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, types.ErrUserChatsExists
		}
		r.log.Error("failed to insert user chats", "user_id", userChats.UserID, "error", err)
		return nil, fmt.Errorf("failed to insert user chats: %w", err)
	}
	return userChats, nil
}

func (r *mongoUserChatsRepo) AppendChat(ctx context.Context, userID string, summary types.ChatSummary) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$push": bson.M{"chats": summary},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		r.log.Error("failed to push chat summary", "user_id", userID, "error", err)
		return fmt.Errorf("failed to push chat summary: %w", err)
	}
	if result.MatchedCount == 0 {
		return types.ErrUserChatsNotFound
	}
	return nil
}
