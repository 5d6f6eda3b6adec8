package speech

import (
  "math"

  "github.com/glavox/glavox-backend/internal/types"
)

// Weights for combining the five sub-scores. They sum to exactly 1.
const (
  WeightPronunciation   = 0.25
  WeightConfidence      = 0.20
  WeightClarity         = 0.20
  WeightResponseTime    = 0.15
  WeightInteractionFlow = 0.20
)

type threshold struct {
  min float64
  max float64
}

// Normalization thresholds in raw physical units (ratios, dB, wpm,
// pauses per second, seconds).
var (
  thresholdWordAccuracy     = threshold{min: 0.6, max: 0.95}
  thresholdPhonemeAccuracy  = threshold{min: 0.7, max: 0.98}
  thresholdVolumeLevel      = threshold{min: 40, max: 85}
  thresholdSpeakingRate     = threshold{min: 120, max: 160}
  thresholdPauseFrequency   = threshold{min: 0.1, max: 0.3}
  thresholdNoiseLevel       = threshold{min: -60, max: -30}
  thresholdResponseTime     = threshold{min: 0.5, max: 3}
  thresholdContextRelevance = threshold{min: 0.7, max: 0.95}
)

// normalizeValue maps v onto [0,1]: exactly 0 at or below min, exactly 1
// at or above max, linear in between.
func normalizeValue(v float64, t threshold) float64 {
  if v <= t.min {
    return 0
  }
  if v >= t.max {
    return 1
  }
  return (v - t.min) / (t.max - t.min)
}

func pronunciationScore(m Metrics) float64 {
  wordScore := normalizeValue(m.WordAccuracy, thresholdWordAccuracy)
  phonemeScore := normalizeValue(m.PhonemeAccuracy, thresholdPhonemeAccuracy)
  return (wordScore*0.6 + phonemeScore*0.4) * 100
}

func confidenceScore(m Metrics) float64 {
  volumeScore := normalizeValue(m.VolumeLevel, thresholdVolumeLevel)
  rateScore := normalizeValue(m.SpeakingRate, thresholdSpeakingRate)
  return (volumeScore*0.5 + rateScore*0.5) * 100
}

func clarityScore(m Metrics) float64 {
  pauseScore := normalizeValue(m.PauseFrequency, thresholdPauseFrequency)
  // Noise is a negative dB figure; quieter backgrounds are further from
  // zero, so normalize the absolute value over inverted bounds.
  noiseScore := normalizeValue(math.Abs(m.NoiseLevel), threshold{
    min: math.Abs(thresholdNoiseLevel.max),
    max: math.Abs(thresholdNoiseLevel.min),
  })
  return (pauseScore*0.4 + noiseScore*0.6) * 100
}

func responseTimeScore(m Metrics) float64 {
  return normalizeValue(m.ResponseTime, thresholdResponseTime) * 100
}

func interactionFlowScore(m Metrics) float64 {
  return normalizeValue(m.ContextRelevance, thresholdContextRelevance) * 100
}

// CombinedScore derives the weighted combination of a score set's five
// sub-scores. Call it rather than reading Combined off a hand-built set.
func CombinedScore(s types.ScoreSet) float64 {
  return s.Pronunciation*WeightPronunciation +
    s.Confidence*WeightConfidence +
    s.Clarity*WeightClarity +
    s.ResponseTime*WeightResponseTime +
    s.InteractionFlow*WeightInteractionFlow
}

// CalculateScores maps raw metrics onto the five weighted sub-scores plus
// their combination. Pure and deterministic, no I/O.
func CalculateScores(m Metrics) types.ScoreSet {
  scores := types.ScoreSet{
    Pronunciation:   pronunciationScore(m),
    Confidence:      confidenceScore(m),
    Clarity:         clarityScore(m),
    ResponseTime:    responseTimeScore(m),
    InteractionFlow: interactionFlowScore(m),
  }
  scores.Combined = CombinedScore(scores)
  return scores
}

const feedbackThreshold = 70

// GenerateFeedback emits one fixed advisory per sub-score strictly below
// the feedback threshold. An empty slice means every category passed.
func GenerateFeedback(s types.ScoreSet) []string {
  feedback := []string{}
  if s.Pronunciation < feedbackThreshold {
    feedback = append(feedback, "Try to speak more clearly and focus on word pronunciation.")
  }
  if s.Confidence < feedbackThreshold {
    feedback = append(feedback, "Speak with more confidence and maintain a steady volume.")
  }
  if s.Clarity < feedbackThreshold {
    feedback = append(feedback, "Reduce background noise and pace your speech with appropriate pauses.")
  }
  if s.ResponseTime < feedbackThreshold {
    feedback = append(feedback, "Try to respond more promptly while maintaining natural conversation flow.")
  }
  if s.InteractionFlow < feedbackThreshold {
    feedback = append(feedback, "Focus on maintaining relevant and contextual responses.")
  }
  return feedback
}
