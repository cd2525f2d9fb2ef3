package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/logger"
)

const (
	ChatsCollection     = "chats"
	UserChatsCollection = "userchats"
)

type MongoService struct {
	client *mongo.Client
	db     *mongo.Database
	log    *logger.Logger
}

func NewMongoService(ctx context.Context, log *logger.Logger, mc config.MongoConfig) (*MongoService, error) {
	serviceLog := log.With("service", "MongoService")

	serviceLog.Info("Attempting to connect to MongoDB now...", "database", mc.Database)
	client, err := mongo.Connect(options.Client().ApplyURI(mc.URI))
	if err != nil {
		serviceLog.Error("Failed to connect to MongoDB", "error", err)
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		serviceLog.Error("Failed to ping MongoDB", "error", err)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	serviceLog.Info("Successfully Connected to MongoDB :)")
	return &MongoService{client: client, db: client.Database(mc.Database), log: serviceLog}, nil
}

// EnsureIndexes creates the owner lookup index on chats and the unique
// per-user index on userchats.
func (s *MongoService) EnsureIndexes(ctx context.Context) error {
	s.log.Info("Ensuring MongoDB indexes now...")
	if _, err := s.db.Collection(ChatsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index on %s.user_id: %w", ChatsCollection, err)
	}
	if _, err := s.db.Collection(UserChatsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_user_id"),
	}); err != nil {
		return fmt.Errorf("failed to create unique index on %s.user_id: %w", UserChatsCollection, err)
	}
	s.log.Info("MongoDB indexes ready :)")
	return nil
}

func (s *MongoService) Database() *mongo.Database {
	return s.db
}

func (s *MongoService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
