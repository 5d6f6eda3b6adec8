package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/glavox/glavox-backend/internal/services"
)

type AnalyticsHandler struct {
  analyticsService services.AnalyticsService
}

func NewAnalyticsHandler(analyticsService services.AnalyticsService) *AnalyticsHandler {
  return &AnalyticsHandler{analyticsService: analyticsService}
}

func (ah *AnalyticsHandler) GetUserAnalytics(c *gin.Context) {
  userID, ok := parseUserID(c)
  if !ok {
    return
  }
  agg, err := ah.analyticsService.UserAggregate(c.Request.Context(), userID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, agg)
}

func (ah *AnalyticsHandler) GetWeeklyAnalytics(c *gin.Context) {
  userID, ok := parseUserID(c)
  if !ok {
    return
  }
  agg, err := ah.analyticsService.WeeklyAggregate(c.Request.Context(), userID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, agg)
}

func (ah *AnalyticsHandler) GetOverview(c *gin.Context) {
  userID, ok := parseUserID(c)
  if !ok {
    return
  }
  overview, err := ah.analyticsService.Overview(c.Request.Context(), userID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, overview)
}

func (ah *AnalyticsHandler) GetSpeakingStats(c *gin.Context) {
  userID, ok := parseUserID(c)
  if !ok {
    return
  }
  stats, err := ah.analyticsService.SpeakingStatsForUser(c.Request.Context(), userID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, stats)
}

func (ah *AnalyticsHandler) GetStudentClusters(c *gin.Context) {
  clusters, err := ah.analyticsService.StudentClusters(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, clusters)
}
