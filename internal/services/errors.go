package services

import (
  "errors"
)

// Error taxonomy surfaced by the service layer. Handlers translate these
// with errors.Is: invalid input maps to 400, not-found to 404, anything
// else is a persistence failure and maps to 500.
var (
  ErrInvalidInput    = errors.New("invalid input")
  ErrSessionNotFound = errors.New("session not found")
  ErrUserNotFound    = errors.New("user not found")
)
