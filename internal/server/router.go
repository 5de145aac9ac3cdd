package server

import (
  "time"

  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/handlers"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/middleware"
  "github.com/chirpchat/chirp-backend/internal/utils"
)

type RouterConfig struct {
  Log            *logger.Logger
  AuthMiddleware *middleware.AuthMiddleware
  AuthHandler    *handlers.AuthHandler
  UserHandler    *handlers.UserHandler
  FriendHandler  *handlers.FriendHandler
  ChatHandler    *handlers.ChatHandler
  MessageHandler *handlers.MessageHandler
  WSHandler      *handlers.WSHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(cors.New(cors.Config{
    AllowOrigins:     utils.GetEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}, cfg.Log),
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
    AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
    AllowCredentials: true,
    MaxAge:           12 * time.Hour,
  }))

  router.GET("/healthcheck", handlers.HealthCheck)

  auth := router.Group("/api/user")
  {
    auth.POST("/register", cfg.AuthHandler.Register)
    auth.POST("/login", cfg.AuthHandler.Login)
    auth.POST("/refresh", cfg.AuthHandler.Refresh)
  }

  api := router.Group("/api", cfg.AuthMiddleware.RequireAuth())
  {
    api.POST("/user/logout", cfg.AuthHandler.Logout)
    api.GET("/user/me", cfg.UserHandler.GetMe)
    api.GET("/user/search", cfg.UserHandler.Search)
    api.GET("/user/:userId", cfg.UserHandler.GetByID)

    api.POST("/friend/block/:userId", cfg.FriendHandler.Block)
    api.DELETE("/friend/block/:userId", cfg.FriendHandler.Unblock)

    api.POST("/chat", cfg.ChatHandler.Access)
    api.GET("/chat", cfg.ChatHandler.Fetch)
    api.GET("/chat/:chatId", cfg.ChatHandler.Get)
    api.POST("/chat/group", cfg.ChatHandler.CreateGroup)
    api.PUT("/chat/group", cfg.ChatHandler.UpdateGroup)
    api.DELETE("/chat/group/:chatId/users/:userId", cfg.ChatHandler.RemoveFromGroup)
    api.POST("/chat/group/:chatId/leave", cfg.ChatHandler.Leave)

    api.POST("/message", cfg.MessageHandler.Send)
    api.GET("/message/chat/:chatId", cfg.MessageHandler.List)
    api.GET("/message/:messageId", cfg.MessageHandler.Get)
    api.PUT("/message/:messageId", cfg.MessageHandler.Edit)
    api.DELETE("/message/:messageId", cfg.MessageHandler.Delete)
  }

  router.GET("/ws", cfg.AuthMiddleware.RequireAuth(), cfg.WSHandler.Serve)

  return router
}
