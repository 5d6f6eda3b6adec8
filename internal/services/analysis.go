package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/observability"
  "github.com/glavox/glavox-backend/internal/speech"
  "github.com/glavox/glavox-backend/internal/types"
)

// AnalysisResult is the full outcome of analyzing one transcript: the per
// utterance scores and metrics, the advisory feedback, and the session's
// recomputed final scores after this entry was folded in.
type AnalysisResult struct {
  Scores      types.ScoreSet        `json:"scores"`
  FinalScores types.ScoreSet        `json:"final_scores"`
  Feedback    []string              `json:"feedback"`
  Metrics     types.MetricSnapshot  `json:"metrics"`
}

type AnalysisService interface {
  Analyze(ctx context.Context, sessionID uuid.UUID, transcribedText string) (*AnalysisResult, error)
}

type analysisService struct {
  log            *logger.Logger
  sessionService SessionService
}

func NewAnalysisService(log *logger.Logger, sessionService SessionService) AnalysisService {
  serviceLog := log.With("service", "AnalysisService")
  return &analysisService{log: serviceLog, sessionService: sessionService}
}

// Analyze runs the extractor and scorer over the transcript and records
// the result against the session. Given non-empty text and a known
// session, analysis itself cannot fail: metric extraction degrades to
// defaults instead of erroring.
func (as *analysisService) Analyze(ctx context.Context, sessionID uuid.UUID, transcribedText string) (*AnalysisResult, error) {
  if strings.TrimSpace(transcribedText) == "" {
    return nil, fmt.Errorf("%w: transcribed text is required", ErrInvalidInput)
  }

  started := time.Now()

  metrics := speech.ExtractMetrics(transcribedText)
  scores := speech.CalculateScores(metrics)
  snapshot := metrics.Snapshot()

  finalScores, err := as.sessionService.RecordScoring(ctx, sessionID, scores, snapshot)
  if err != nil {
    return nil, err
  }

  observability.SpeechAnalyses.Inc()
  observability.AnalysisDuration.Observe(time.Since(started).Seconds())
  as.log.Debug("Analyzed transcript",
    "session_id", sessionID,
    "combined", scores.Combined,
    "final_combined", finalScores.Combined,
  )

  return &AnalysisResult{
    Scores:      scores,
    FinalScores: finalScores,
    Feedback:    speech.GenerateFeedback(scores),
    Metrics:     snapshot,
  }, nil
}
