package main

import (
  "fmt"
  "os"
  "time"

  "github.com/joho/godotenv"

  "github.com/glavox/glavox-backend/internal/db"
  "github.com/glavox/glavox-backend/internal/handlers"
  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/middleware"
  "github.com/glavox/glavox-backend/internal/repos"
  "github.com/glavox/glavox-backend/internal/server"
  "github.com/glavox/glavox-backend/internal/services"
  "github.com/glavox/glavox-backend/internal/utils"
)

func main() {
  // Env file (optional, local development only)
  _ = godotenv.Load()

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

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  uploadDir := utils.GetEnv("UPLOAD_DIR", "./uploads", log)
  avatarDir := utils.GetEnv("AVATAR_DIR", "./avatars", log)
  port := utils.GetEnv("PORT", "8080", log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Fatal("Postgres init failed", "error", err)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  sessionRepo := repos.NewSessionRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  avatarService, err := services.NewAvatarService(log, avatarDir)
  if err != nil {
    log.Warn("Avatar service init failed, registrations will have no avatar", "error", err)
  }
  authService := services.NewAuthService(
    thePG,
    log,
    userRepo,
    userTokenRepo,
    avatarService,
    jwtSecretKey,
    time.Duration(accessTokenTTL)*time.Second,
    time.Duration(refreshTokenTTL)*time.Second,
  )
  userService := services.NewUserService(thePG, log, userRepo)
  sessionService := services.NewSessionService(thePG, log, sessionRepo)
  analysisService := services.NewAnalysisService(log, sessionService)
  analyticsService := services.NewAnalyticsService(log, sessionRepo)
  audioService := services.NewAudioService(log)

  // Middleware
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Handlers
  log.Info("Setting up Handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService, avatarDir)
  sessionHandler := handlers.NewSessionHandler(sessionService)
  speechHandler := handlers.NewSpeechHandler(log, analysisService, sessionService, audioService, uploadDir)
  analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)

  // Router
  router := server.NewRouter(server.RouterConfig{
    Log:              log,
    AuthMiddleware:   authMiddleware,
    AuthHandler:      authHandler,
    UserHandler:      userHandler,
    SessionHandler:   sessionHandler,
    SpeechHandler:    speechHandler,
    AnalyticsHandler: analyticsHandler,
  })

  log.Info("Starting server...", "port", port)
  if err := router.Run(":" + port); err != nil {
    log.Fatal("Server exited", "error", err)
  }
}
