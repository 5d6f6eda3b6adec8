package handlers

import (
  "fmt"
  "net/http"
  "strconv"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/glavox/glavox-backend/internal/services"
  "github.com/glavox/glavox-backend/internal/types"
  "github.com/glavox/glavox-backend/internal/utils"
)

type SessionHandler struct {
  sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService) *SessionHandler {
  return &SessionHandler{sessionService: sessionService}
}

func (sh *SessionHandler) CreateSession(c *gin.Context) {
  var body struct {
    UserID    string       `json:"user_id"`
    StartTime *time.Time   `json:"start_time"`
  }
  if err := c.ShouldBindJSON(&body); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  userID, err := uuid.Parse(body.UserID)
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
    return
  }
  session, created, err := sh.sessionService.CreateOrResume(c.Request.Context(), userID, body.StartTime)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  status := http.StatusOK
  if created {
    status = http.StatusCreated
  }
  c.JSON(status, session.View(time.Now()))
}

func (sh *SessionHandler) MarkExit(c *gin.Context) {
  sessionID, ok := parseSessionID(c)
  if !ok {
    return
  }
  var body struct {
    EndTime *time.Time    `json:"end_time"`
  }
  // An empty body means "exit now".
  _ = c.ShouldBindJSON(&body)

  session, err := sh.sessionService.Close(c.Request.Context(), sessionID, body.EndTime)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  view := session.View(time.Now())
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "session": gin.H{
      "id":               session.ID,
      "enter_time":       view.EnterTimeIST,
      "exit_time":        view.ExitTimeIST,
      "duration":         session.FormattedChatDuration,
      "speaking_time":    session.FormattedSpeakingTime,
      "speaking_count":   session.SpeakingCount,
      "total_speaking_time": session.TotalSpeakingTimeInSeconds,
      "longest_duration":  session.LongestDurationInSeconds,
      "shortest_duration": session.ShortestSeconds(),
      "average_duration":  session.AverageDurationInSeconds,
    },
  })
}

func (sh *SessionHandler) GetSession(c *gin.Context) {
  sessionID, ok := parseSessionID(c)
  if !ok {
    return
  }
  session, err := sh.sessionService.GetByID(c.Request.Context(), sessionID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, session.View(time.Now()))
}

func (sh *SessionHandler) GetUserSessions(c *gin.Context) {
  userID, ok := parseUserID(c)
  if !ok {
    return
  }
  limit := 10
  if l := c.Query("limit"); l != "" {
    if parsed, err := parsePositiveInt(l); err == nil {
      limit = parsed
    }
  }
  sessions, err := sh.sessionService.ListForUser(c.Request.Context(), userID, limit)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  now := time.Now()
  views := make([]types.SessionView, 0, len(sessions))
  for _, session := range sessions {
    views = append(views, session.View(now))
  }
  c.JSON(http.StatusOK, gin.H{"sessions": views})
}

func (sh *SessionHandler) CheckActive(c *gin.Context) {
  userID, ok := parseUserID(c)
  if !ok {
    return
  }
  session, err := sh.sessionService.ActiveForUser(c.Request.Context(), userID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  if session == nil {
    c.JSON(http.StatusOK, gin.H{"success": true, "is_active": false})
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success":   true,
    "is_active": true,
    "session":   session.View(time.Now()),
  })
}

func (sh *SessionHandler) GetSpeakingTime(c *gin.Context) {
  sessionID, ok := parseSessionID(c)
  if !ok {
    return
  }
  session, err := sh.sessionService.GetByID(c.Request.Context(), sessionID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "data": gin.H{
      "session_id":          session.ID,
      "total_speaking_time": session.TotalSpeakingTimeInSeconds,
      "formatted_duration":  utils.FormatDuration(session.TotalSpeakingTimeInSeconds),
    },
  })
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
  sessionID, err := uuid.Parse(c.Param("sessionId"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
    return uuid.Nil, false
  }
  return sessionID, true
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
  userID, err := uuid.Parse(c.Param("userId"))
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
    return uuid.Nil, false
  }
  return userID, true
}

func parsePositiveInt(s string) (int, error) {
  n, err := strconv.Atoi(s)
  if err != nil {
    return 0, err
  }
  if n <= 0 {
    return 0, fmt.Errorf("must be positive")
  }
  return n, nil
}
