package types

import (
  "time"
)

// ScoreSet holds the five speaking sub-scores plus their weighted
// combination, all on a 0-100 scale. Combined is always derived from the
// five sub-scores, never stored independently of them.
type ScoreSet struct {
  Pronunciation   float64     `gorm:"column:pronunciation" json:"pronunciation"`
  Confidence      float64     `gorm:"column:confidence" json:"confidence"`
  Clarity         float64     `gorm:"column:clarity" json:"clarity"`
  ResponseTime    float64     `gorm:"column:response_time" json:"response_time"`
  InteractionFlow float64     `gorm:"column:interaction_flow" json:"interaction_flow"`
  Combined        float64     `gorm:"column:combined" json:"combined"`
}

// MetricSnapshot is the percentage view of one utterance's raw speech
// metrics. Every field is clamped to [0,100] at derivation time.
type MetricSnapshot struct {
  WordAccuracy      float64   `json:"word_accuracy"`
  PhonemeAccuracy   float64   `json:"phoneme_accuracy"`
  VolumeLevel       float64   `json:"volume_level"`
  SpeakingRate      float64   `json:"speaking_rate"`
  PauseFrequency    float64   `json:"pause_frequency"`
  NoiseLevel        float64   `json:"noise_level"`
  ResponseTime      float64   `json:"response_time"`
  ContextRelevance  float64   `json:"context_relevance"`
}

// ScoringEntry is one immutable element of a session's scoring history.
// Entries are appended in chronological order and never rewritten.
type ScoringEntry struct {
  Timestamp   time.Time       `json:"timestamp"`
  Scores      ScoreSet        `json:"scores"`
  Metrics     MetricSnapshot  `json:"metrics"`
}
