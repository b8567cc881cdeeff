package router

import (
	"context"
	"strings"

	"github.com/TianUrien/playr-chat/internal/config"
	"github.com/TianUrien/playr-chat/internal/gateway"
	"github.com/TianUrien/playr-chat/internal/handler"
	"github.com/TianUrien/playr-chat/internal/middleware"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/websocket"
)

// SetupRouter sets up all routes
func SetupRouter(h *server.Hertz, handlers *Handlers, wsServer *gateway.WsServer, validator middleware.TokenValidator) {
	cfg := config.GlobalConfig

	// CORS middleware
	h.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// Health check
	h.GET("/health", func(ctx context.Context, c *app.RequestContext) {
		c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
	})

	auth := middleware.JWTAuth(validator)

	// Auth routes (no auth required)
	authGroup := h.Group("/auth")
	{
		authGroup.POST("/register", handlers.Auth.Register)
		authGroup.POST("/login", handlers.Auth.Login)
	}

	// Logout needs the authenticated identity
	h.POST("/auth/logout", auth, handlers.Auth.Logout)

	// User routes (auth required)
	userGroup := h.Group("/user", auth)
	{
		userGroup.GET("/info", handlers.User.GetUserInfo)
		userGroup.GET("/info/:user_id", handlers.User.GetUserInfoById)
		userGroup.PUT("/update", handlers.User.UpdateUserInfo)
	}

	// Message routes (auth required)
	msgGroup := h.Group("/msg", auth)
	{
		msgGroup.POST("/send", handlers.Message.SendMessage)
		msgGroup.GET("/list", handlers.Message.ListMessages)
	}

	// Conversation routes (auth required)
	convGroup := h.Group("/conversation", auth)
	{
		convGroup.GET("/list", handlers.Conversation.GetConversationList)
		convGroup.GET("/info", handlers.Conversation.GetConversation)
		convGroup.GET("/with", handlers.Conversation.GetConversationWith)
		convGroup.POST("/mark_read", handlers.Conversation.MarkRead)
		convGroup.GET("/unread_count", handlers.Conversation.GetUnreadCount)
		convGroup.GET("/total_unread", handlers.Conversation.GetTotalUnread)
	}

	// WebSocket change feed using hertz-contrib/websocket with origin validation
	allowedOrigins := cfg.Server.AllowedOrigins
	upgrader := &websocket.HertzUpgrader{
		CheckOrigin: func(ctx *app.RequestContext) bool {
			return checkOrigin(ctx, allowedOrigins)
		},
	}

	h.GET("/ws", func(ctx context.Context, c *app.RequestContext) {
		wsServer.HandleHertzConnection(ctx, c, upgrader)
	})
}

// checkOrigin validates the Origin header against allowed origins
func checkOrigin(ctx *app.RequestContext, allowedOrigins []string) bool {
	origin := string(ctx.Request.Header.Peek("Origin"))

	// No origin header: same-origin request or non-browser client
	if origin == "" {
		return true
	}

	if len(allowedOrigins) == 0 {
		return false
	}

	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return true
		}
		if strings.EqualFold(origin, allowed) {
			return true
		}
	}

	return false
}

// Handlers holds all HTTP handlers
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Message      *handler.MessageHandler
	Conversation *handler.ConversationHandler
}
