package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/glavox/glavox-backend/internal/services"
)

// RespondServiceError maps the service error taxonomy onto HTTP status
// codes: invalid input is the caller's fault, unknown ids are 404, and
// anything else is treated as a persistence failure.
func RespondServiceError(c *gin.Context, err error) {
  status := http.StatusInternalServerError
  switch {
  case errors.Is(err, services.ErrInvalidInput):
    status = http.StatusBadRequest
  case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrUserNotFound):
    status = http.StatusNotFound
  }
  c.JSON(status, gin.H{"error": err.Error()})
}
