package main

import (
  "context"
  "fmt"
  "os"
  "time"

  "github.com/joho/godotenv"

  "github.com/chirpchat/chirp-backend/internal/cache"
  "github.com/chirpchat/chirp-backend/internal/db"
  "github.com/chirpchat/chirp-backend/internal/handlers"
  "github.com/chirpchat/chirp-backend/internal/hub"
  "github.com/chirpchat/chirp-backend/internal/hydrate"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/middleware"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/server"
  "github.com/chirpchat/chirp-backend/internal/services"
  "github.com/chirpchat/chirp-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  if err := godotenv.Load(); err != nil {
    log.Debug("No .env file found, relying on process environment")
  }

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Error("Postgres auto migration failed", "error", err)
    os.Exit(1)
  }
  thePG := postgresService.DB()

  // Mongo
  mongoService, err := db.NewMongoService(context.Background(), log)
  if err != nil {
    log.Error("Mongo init failed", "error", err)
    os.Exit(1)
  }
  defer mongoService.Close(context.Background())
  if err = mongoService.EnsureIndexes(context.Background()); err != nil {
    log.Error("Mongo index setup failed", "error", err)
    os.Exit(1)
  }
  theMongo := mongoService.DB()

  // Redis
  redisCache, err := cache.NewRedis(log)
  if err != nil {
    log.Error("Redis init failed", "error", err)
    os.Exit(1)
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  friendRelationRepo := repos.NewFriendRelationRepo(thePG, log)
  chatRepo := repos.NewChatRepo(theMongo, log)
  messageRepo := repos.NewMessageRepo(theMongo, log)

  // Hub
  log.Info("Setting up websocket hub now...")
  wsHub := hub.NewHub(log)

  // Hydration + cache read-through
  hydrator := hydrate.New(userRepo, chatRepo, messageRepo, log)
  populator := cache.NewPopulator(redisCache, messageRepo, chatRepo, userRepo, hydrator, log)

  // Services
  log.Info("Setting up Services from main...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo, populator)
  friendService := services.NewFriendService(thePG, log, userRepo, friendRelationRepo)
  chatService := services.NewChatService(log, userRepo, chatRepo, hydrator, redisCache, populator)
  messageService := services.NewMessageService(log, chatRepo, messageRepo, friendRelationRepo, hydrator, redisCache, populator, wsHub)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  friendHandler := handlers.NewFriendHandler(friendService)
  chatHandler := handlers.NewChatHandler(chatService)
  messageHandler := handlers.NewMessageHandler(messageService)
  wsHandler := handlers.NewWSHandler(log, wsHub)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    Log:            log,
    AuthMiddleware: authMiddleware,
    AuthHandler:    authHandler,
    UserHandler:    userHandler,
    FriendHandler:  friendHandler,
    ChatHandler:    chatHandler,
    MessageHandler: messageHandler,
    WSHandler:      wsHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}
