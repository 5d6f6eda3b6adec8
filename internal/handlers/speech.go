package handlers

import (
  "fmt"
  "net/http"
  "os"
  "path/filepath"
  "strings"
  "time"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/services"
)

const maxAudioUploadBytes = 10 << 20

type SpeechHandler struct {
  log             *logger.Logger
  analysisService services.AnalysisService
  sessionService  services.SessionService
  audioService    services.AudioService
  uploadDir       string
}

func NewSpeechHandler(
  log *logger.Logger,
  analysisService services.AnalysisService,
  sessionService services.SessionService,
  audioService services.AudioService,
  uploadDir string,
) *SpeechHandler {
  handlerLog := log.With("handler", "SpeechHandler")
  return &SpeechHandler{
    log:             handlerLog,
    analysisService: analysisService,
    sessionService:  sessionService,
    audioService:    audioService,
    uploadDir:       uploadDir,
  }
}

// Analyze runs the extractor/scorer pipeline over a transcript and folds
// the result into the session's scoring history.
func (sph *SpeechHandler) Analyze(c *gin.Context) {
  sessionID, ok := parseSessionID(c)
  if !ok {
    return
  }
  var body struct {
    TranscribedText string    `json:"transcribed_text"`
  }
  if err := c.ShouldBindJSON(&body); err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
    return
  }
  result, err := sph.analysisService.Analyze(c.Request.Context(), sessionID, body.TranscribedText)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusOK, gin.H{
    "success":      true,
    "scores":       result.Scores,
    "final_scores": result.FinalScores,
    "feedback":     result.Feedback,
    "metrics":      result.Metrics,
  })
}

// UploadUtterance accepts one recorded clip, probes its duration and
// folds it into the session's speaking aggregates. The uploaded file is
// deleted once probed.
func (sph *SpeechHandler) UploadUtterance(c *gin.Context) {
  sessionID, ok := parseSessionID(c)
  if !ok {
    return
  }

  file, err := c.FormFile("audio")
  if err != nil {
    c.JSON(http.StatusBadRequest, gin.H{"error": "no audio file provided"})
    return
  }
  if file.Size > maxAudioUploadBytes {
    c.JSON(http.StatusBadRequest, gin.H{"error": "audio file too large"})
    return
  }
  contentType := file.Header.Get("Content-Type")
  if contentType != "" && !strings.HasPrefix(contentType, "audio/") {
    c.JSON(http.StatusBadRequest, gin.H{"error": "not an audio file"})
    return
  }

  if err := os.MkdirAll(sph.uploadDir, 0o755); err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store audio file"})
    return
  }
  dst := filepath.Join(sph.uploadDir, fmt.Sprintf("audio-%d-%s%s", time.Now().UnixNano(), uuid.NewString(), filepath.Ext(file.Filename)))
  if err := c.SaveUploadedFile(file, dst); err != nil {
    c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store audio file"})
    return
  }
  defer func() {
    if rmErr := os.Remove(dst); rmErr != nil {
      sph.log.Warn("Failed to delete uploaded audio file", "path", dst, "error", rmErr)
    }
  }()

  durationSeconds, err := sph.audioService.Duration(dst)
  if err != nil {
    RespondServiceError(c, err)
    return
  }

  session, err := sph.sessionService.RecordUtterance(c.Request.Context(), sessionID, durationSeconds)
  if err != nil {
    RespondServiceError(c, err)
    return
  }

  c.JSON(http.StatusOK, gin.H{
    "success": true,
    "speaking_stats": gin.H{
      "duration":                durationSeconds,
      "total_speaking_time":     session.TotalSpeakingTimeInSeconds,
      "speaking_count":          session.SpeakingCount,
      "average_duration":        session.AverageDurationInSeconds,
      "longest_duration":        session.LongestDurationInSeconds,
      "shortest_duration":       session.ShortestSeconds(),
      "formatted_speaking_time": session.FormattedSpeakingTime,
    },
  })
}
