package server

import (
	"github.com/gin-gonic/gin"

	"github.com/racon-ai/racon-backend/internal/handlers"
	"github.com/racon-ai/racon-backend/internal/logger"
	"github.com/racon-ai/racon-backend/internal/middleware"
)

type RouterConfig struct {
	Log            *logger.Logger
	ClientURLs     []string
	AuthMiddleware *middleware.AuthMiddleware
	ChatHandler    *handlers.ChatHandler
	MediaHandler   *handlers.MediaHandler
	HealthHandler  *handlers.HealthHandler
	WsHandler      gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.AttachRequestContext())
	router.Use(middleware.RequestLogger(cfg.Log))
	router.Use(middleware.Recovery())

	//-----------------------------------------
	// Cors Setup
	//-----------------------------------------
	router.Use(middleware.CORS(cfg.ClientURLs))

	//-----------------------------------------
	// Health Routes
	//-----------------------------------------
	router.GET("/healthz", cfg.HealthHandler.Healthz)

	//-----------------------------------------
	// Public Routes
	//-----------------------------------------
	api := router.Group("/api")
	{
		api.GET("/upload", cfg.MediaHandler.UploadAuth)
	}

	//------------------------------------------
	// Protected Routes
	//------------------------------------------
	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	if cfg.WsHandler != nil {
		protected.GET("/ws", cfg.WsHandler)
	}

	//Chats
	protected.POST("/chats", cfg.ChatHandler.CreateChat)
	protected.GET("/userchats", cfg.ChatHandler.ListUserChats)
	protected.GET("/chats/:id", cfg.ChatHandler.GetChat)
	protected.PUT("/chats/:id", cfg.ChatHandler.AppendTurn)

	return router
}
