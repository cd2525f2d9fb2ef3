package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/types"
)

type mongoChatRepo struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewMongoChatRepo(db *mongo.Database, collection string, baseLog *logger.Logger) ChatRepo {
	return &mongoChatRepo{
		coll: db.Collection(collection),
		log:  baseLog.With("repo", "MongoChatRepo"),
	}
}

func (r *mongoChatRepo) Create(ctx context.Context, chat *types.Chat) (*types.Chat, error) {
	if chat.ID == "" {
		chat.ID = uuid.NewString()
	}
	if chat.History == nil {
		chat.History = []types.Turn{}
	}
	now := time.Now().UTC()
	chat.CreatedAt = now
	chat.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, chat); err != nil {
		r.log.Error("failed to insert chat", "error", err)
		return nil, fmt.Errorf("failed to insert chat: %w", err)
	}
	return chat, nil
}

func (r *mongoChatRepo) GetByIDForUser(ctx context.Context, chatID, userID string) (*types.Chat, error) {
	var chat types.Chat
	err := r.coll.FindOne(ctx, bson.M{"_id": chatID, "user_id": userID}).Decode(&chat)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, types.ErrChatNotFound
		}
		r.log.Error("failed to find chat", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	if chat.History == nil {
		chat.History = []types.Turn{}
	}
	return &chat, nil
}

func (r *mongoChatRepo) AppendTurns(ctx context.Context, chatID, userID string, turns []types.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": chatID, "user_id": userID},
		bson.M{
			"$push": bson.M{"history": bson.M{"$each": turns}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		r.log.Error("failed to push turns", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to push turns: %w", err)
	}
	if result.MatchedCount == 0 {
		return types.ErrChatNotFound
	}
	return nil
}
