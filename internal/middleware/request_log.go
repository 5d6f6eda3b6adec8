package middleware

import (
  "strconv"
  "strings"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/observability"
  "github.com/glavox/glavox-backend/internal/requestdata"
)

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
  return func(c *gin.Context) {
    start := time.Now()
    c.Next()

    if log == nil {
      return
    }

    status := c.Writer.Status()
    path := c.FullPath()
    if path == "" {
      path = c.Request.URL.Path
    }

    fields := []interface{}{
      "method", strings.ToUpper(c.Request.Method),
      "path", path,
      "status", status,
      "duration_ms", time.Since(start).Milliseconds(),
    }
    if rd := requestdata.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
      fields = append(fields, "user_id", rd.UserID.String())
    }

    switch {
    case status >= 500:
      log.Error("HTTP request", fields...)
    case status >= 400:
      log.Warn("HTTP request", fields...)
    default:
      log.Info("HTTP request", fields...)
    }
  }
}

// Metrics instruments request latency by method, route and status.
func Metrics() gin.HandlerFunc {
  return func(c *gin.Context) {
    start := time.Now()
    c.Next()

    route := c.FullPath()
    if route == "" {
      route = "unknown"
    }
    observability.RequestDuration.
      WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
      Observe(time.Since(start).Seconds())
  }
}
