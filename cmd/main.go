package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/config"
	"github.com/racon-ai/racon-backend/internal/db"
	"github.com/racon-ai/racon-backend/internal/handlers"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/middleware"
	"github.com/racon-ai/racon-backend/internal/repos"
	"github.com/racon-ai/racon-backend/internal/server"
	"github.com/racon-ai/racon-backend/internal/services"
	"github.com/racon-ai/racon-backend/internal/socket"
)

func main() {
	// Logger Setup
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Environment Variables
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}
	if strings.HasPrefix(strings.ToLower(cfg.LogMode), "prod") {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Store Setup
	log.Info("Setting Up Store from Main now...", "driver", cfg.StoreDriver)
	var (
		chatRepo      repos.ChatRepo
		userChatsRepo repos.UserChatsRepo
		store         handlers.Pinger
		closeStore    func() error
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		mongoService, err := db.NewMongoService(ctx, log, cfg.Mongo)
		if err != nil {
			log.Fatal("Mongo init failed", "error", err)
		}
		if err := mongoService.EnsureIndexes(ctx); err != nil {
			log.Fatal("Mongo index creation failed", "error", err)
		}
		chatRepo = repos.NewMongoChatRepo(mongoService.Database(), db.ChatsCollection, log)
		userChatsRepo = repos.NewMongoUserChatsRepo(mongoService.Database(), db.UserChatsCollection, log)
		store = mongoService
		closeStore = func() error { return mongoService.Close(context.Background()) }
	default:
		var sqlService *db.PostgresService
		if cfg.StoreDriver == config.StoreDriverPostgres {
			sqlService, err = db.NewPostgresService(log, cfg.Postgres)
		} else {
			sqlService, err = db.NewSQLiteService(log, cfg.SQLitePath)
		}
		if err != nil {
			log.Fatal("DB init failed", "error", err)
		}
		if err := sqlService.AutoMigrateAll(); err != nil {
			log.Fatal("Auto migration failed", "error", err)
		}
		chatRepo = repos.NewChatRepo(sqlService.DB(), log)
		userChatsRepo = repos.NewUserChatsRepo(sqlService.DB(), log)
		store = sqlService
		closeStore = sqlService.Close
	}
	log.Info("Store Set Up From Main Successful :)")

	// Websocket Setup
	log.Info("Setting Up Websocket Hub From Main Now...")
	wsHub := socket.NewHub(log)

	// Redis PubSub
	var redisPubSub *socket.RedisPubSub
	if cfg.Redis.Enabled() {
		log.Info("Setting Up Redis PubSub From Main Now...")
		redisPubSub, err = socket.NewRedisPubSub(log, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Channel)
		if err != nil {
			log.Warn("Failed to init redis pubsub, realtime stays local", "error", err)
			redisPubSub = nil
		} else if err := redisPubSub.StartSubscriber(wsHub); err != nil {
			log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
			_ = redisPubSub.Close()
			redisPubSub = nil
		} else {
			wsHub.SetRedisPubSub(redisPubSub)
			log.Info("Redis pubsub is active!")
		}
	}

	// Services Setup
	log.Info("Setting up Services from Main now...")
	chatService := services.NewChatService(log, chatRepo, userChatsRepo, wsHub)
	authService, err := services.NewAuthService(log, cfg.Auth)
	if err != nil {
		log.Fatal("Cannot init AuthService", "error", err)
	}
	mediaService, err := services.NewMediaService(ctx, log, cfg.Media)
	if err != nil {
		log.Fatal("Cannot init MediaService", "error", err)
	}
	log.Info("Services Set Up From Main Successful :)")

	// Handler Setup
	chatHandler := handlers.NewChatHandler(chatService)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	healthHandler := handlers.NewHealthHandler(store)
	wsHandler := handlers.WsHandler(wsHub, log, cfg.ClientURLs)

	// MiddleWare Setup
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router Setup
	router := server.NewRouter(server.RouterConfig{
		Log:            log,
		ClientURLs:     cfg.ClientURLs,
		AuthMiddleware: authMiddleware,
		ChatHandler:    chatHandler,
		MediaHandler:   mediaHandler,
		HealthHandler:  healthHandler,
		WsHandler:      wsHandler,
	})
	log.Info("Router Set Up From Main Successful :)")

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("Server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server forced to shutdown", "error", err)
	}

	// On Shutdown
	if redisPubSub != nil {
		if err := redisPubSub.Close(); err != nil {
			log.Warn("Failed to close redis", "error", err)
		}
	}
	if err := mediaService.Close(); err != nil {
		log.Warn("Failed to close media service", "error", err)
	}
	if err := closeStore(); err != nil {
		log.Warn("Failed to close store", "error", err)
	}
	log.Info("Server exiting gracefully")
}
