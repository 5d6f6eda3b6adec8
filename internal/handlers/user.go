package handlers

import (
  "net/http"
  "os"
  "path/filepath"
  "strings"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/glavox/glavox-backend/internal/requestdata"
  "github.com/glavox/glavox-backend/internal/services"
)

const maxAvatarUploadBytes = 5 << 20

type UserHandler struct {
  userService services.UserService
  avatarDir   string
}

func NewUserHandler(userService services.UserService, avatarDir string) *UserHandler {
  return &UserHandler{userService: userService, avatarDir: avatarDir}
}

func (uh *UserHandler) GetMe(c *gin.Context) {
  me, err := uh.userService.GetMe(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"me": me})
}

func (uh *UserHandler) UpdateMe(c *gin.Context) {
  var update services.UserUpdate
  if err := c.ShouldBindJSON(&update); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  me, err := uh.userService.UpdateMe(c.Request.Context(), update)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"me": me})
}

// UpdateAvatar replaces the current user's avatar with a client-uploaded
// image. The file is stored under the avatar directory keyed by user id,
// so a re-upload overwrites the previous one.
func (uh *UserHandler) UpdateAvatar(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil || rd.UserID == uuid.Nil {
    c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
    return
  }

  file, err := c.FormFile("avatar")
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "no avatar file provided"})
    return
  }
  if file.Size > maxAvatarUploadBytes {
    c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file too large"})
    return
  }
  contentType := file.Header.Get("Content-Type")
  if contentType != "" && !strings.HasPrefix(contentType, "image/") {
    c.JSON(http.StatusBadRequest, gin.H{"error": "not an image file"})
    return
  }

  if err := os.MkdirAll(uh.avatarDir, 0o755); err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar file"})
    return
  }
  ext := filepath.Ext(file.Filename)
  if ext == "" {
    ext = ".png"
  }
  dst := filepath.Join(uh.avatarDir, rd.UserID.String()+ext)
  if err := c.SaveUploadedFile(file, dst); err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store avatar file"})
    return
  }

  me, err := uh.userService.UpdateAvatar(c.Request.Context(), dst)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{"me": me})
}
