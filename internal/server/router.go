package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"
  "github.com/prometheus/client_golang/prometheus/promhttp"

  "github.com/glavox/glavox-backend/internal/handlers"
  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/middleware"
)

type RouterConfig struct {
  Log              *logger.Logger
  AuthMiddleware   *middleware.AuthMiddleware
  AuthHandler      *handlers.AuthHandler
  UserHandler      *handlers.UserHandler
  SessionHandler   *handlers.SessionHandler
  SpeechHandler    *handlers.SpeechHandler
  AnalyticsHandler *handlers.AnalyticsHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(middleware.RequestLogger(cfg.Log))
  router.Use(middleware.Metrics())

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:8081",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.GET("/metrics", gin.WrapH(promhttp.Handler()))
  api := router.Group("/api")
  {
    api.POST("/register", cfg.AuthHandler.Register)
    api.POST("/login", cfg.AuthHandler.Login)
  }

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  // User
  protected.GET("/user", cfg.UserHandler.GetMe)
  protected.PUT("/user", cfg.UserHandler.UpdateMe)
  protected.PUT("/user/avatar", cfg.UserHandler.UpdateAvatar)
  // Sessions
  protectedAPI := protected.Group("/api")
  protectedAPI.POST("/sessions", cfg.SessionHandler.CreateSession)
  protectedAPI.GET("/sessions/active/:userId", cfg.SessionHandler.CheckActive)
  protectedAPI.GET("/sessions/user/:userId", cfg.SessionHandler.GetUserSessions)
  protectedAPI.GET("/sessions/:sessionId", cfg.SessionHandler.GetSession)
  protectedAPI.POST("/sessions/:sessionId/exit", cfg.SessionHandler.MarkExit)
  protectedAPI.GET("/sessions/:sessionId/speaking-time", cfg.SessionHandler.GetSpeakingTime)
  // Speech
  protectedAPI.POST("/sessions/:sessionId/speaking", cfg.SpeechHandler.UploadUtterance)
  protectedAPI.POST("/sessions/:sessionId/analyze", cfg.SpeechHandler.Analyze)
  // Analytics
  protectedAPI.GET("/analytics/user/:userId", cfg.AnalyticsHandler.GetUserAnalytics)
  protectedAPI.GET("/analytics/user/:userId/weekly", cfg.AnalyticsHandler.GetWeeklyAnalytics)
  protectedAPI.GET("/analytics/user/:userId/overview", cfg.AnalyticsHandler.GetOverview)
  protectedAPI.GET("/analytics/user/:userId/speaking", cfg.AnalyticsHandler.GetSpeakingStats)
  protectedAPI.GET("/analytics/clusters", cfg.AnalyticsHandler.GetStudentClusters)

  return router
}
