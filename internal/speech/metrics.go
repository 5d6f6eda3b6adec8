package speech

import (
  "regexp"
  "strings"

  "github.com/glavox/glavox-backend/internal/types"
)

// Metrics holds raw-unit speech measurements for one utterance. The scorer
// consumes these directly; the percentage view handed back to clients and
// persisted in history comes from Snapshot.
type Metrics struct {
  WordAccuracy      float64   // ratio [0,1], average word length / 10
  PhonemeAccuracy   float64   // ratio [0,1], share of words longer than 6 chars
  VolumeLevel       float64   // dB
  SpeakingRate      float64   // words per minute
  PauseFrequency    float64   // pauses per second
  NoiseLevel        float64   // dB, negative
  ResponseTime      float64   // seconds
  ContextRelevance  float64   // ratio [0,1], vocabulary diversity
}

// Defaults in the text-only analysis path. Volume, noise and response time
// cannot be measured from a transcript, so they stay at these constants.
const (
  defaultVolumeDB       = 65.0
  defaultNoiseDB        = -45.0
  defaultResponseTimeS  = 1.5

  // Estimated spoken duration heuristic: two seconds per sentence.
  secondsPerSentence    = 2.0
)

var sentenceSplitRE = regexp.MustCompile(`[.!?]+`)

// DefaultMetrics is what ExtractMetrics degrades to when text analysis
// fails for any reason.
func DefaultMetrics() Metrics {
  return Metrics{
    VolumeLevel:  defaultVolumeDB,
    NoiseLevel:   defaultNoiseDB,
    ResponseTime: defaultResponseTimeS,
  }
}

// ExtractMetrics derives speech-quality proxy metrics from transcribed
// text. The caller guarantees text is non-empty; whatever the text shape,
// the returned metrics are always usable (a failed computation falls back
// to DefaultMetrics rather than propagating).
func ExtractMetrics(text string) (m Metrics) {
  m = DefaultMetrics()
  defer func() {
    if r := recover(); r != nil {
      m = DefaultMetrics()
    }
  }()

  words := strings.Fields(text)
  if len(words) == 0 {
    return m
  }

  sentences := splitSentences(text)
  sentenceCount := len(sentences)
  if sentenceCount == 0 {
    // Guard the divisions below; treat the whole text as one sentence.
    sentenceCount = 1
  }

  totalWordLength := 0
  complexWords := 0
  unique := make(map[string]struct{}, len(words))
  for _, w := range words {
    totalWordLength += len(w)
    if len(w) > 6 {
      complexWords++
    }
    unique[strings.ToLower(w)] = struct{}{}
  }

  avgWordLength := float64(totalWordLength) / float64(len(words))
  m.WordAccuracy = clamp(avgWordLength/10, 0, 1)
  m.PhonemeAccuracy = float64(complexWords) / float64(len(words))

  estimatedDuration := float64(sentenceCount) * secondsPerSentence
  m.SpeakingRate = float64(len(words)) / estimatedDuration * 60

  pauseCount := sentenceCount - 1
  m.PauseFrequency = float64(pauseCount) / estimatedDuration

  m.ContextRelevance = float64(len(unique)) / float64(len(words))

  return m
}

// SentenceCount reports how many sentence fragments the extractor sees in
// text. Exposed for the utterance analysis response and tests.
func SentenceCount(text string) int {
  return len(splitSentences(text))
}

func splitSentences(text string) []string {
  fragments := sentenceSplitRE.Split(text, -1)
  sentences := make([]string, 0, len(fragments))
  for _, f := range fragments {
    if strings.TrimSpace(f) != "" {
      sentences = append(sentences, f)
    }
  }
  return sentences
}

// Snapshot scales the raw metrics onto 0-100 percentages. dB values are
// scaled against a [-60,0] dB range, response time against [0,5] seconds
// and speaking rate against 200 wpm. Every field ends up clamped.
func (m Metrics) Snapshot() types.MetricSnapshot {
  pausesPerMinute := m.PauseFrequency * 60
  return types.MetricSnapshot{
    WordAccuracy:     clamp(m.WordAccuracy*100, 0, 100),
    PhonemeAccuracy:  clamp(m.PhonemeAccuracy*100, 0, 100),
    VolumeLevel:      clamp((m.VolumeLevel+60)/60*100, 0, 100),
    SpeakingRate:     clamp(m.SpeakingRate/200*100, 0, 100),
    PauseFrequency:   clamp(pausesPerMinute/2*100, 0, 100),
    NoiseLevel:       clamp((m.NoiseLevel+60)/60*100, 0, 100),
    ResponseTime:     clamp(m.ResponseTime/5*100, 0, 100),
    ContextRelevance: clamp(m.ContextRelevance*100, 0, 100),
  }
}

func clamp(v, min, max float64) float64 {
  if v < min {
    return min
  }
  if v > max {
    return max
  }
  return v
}
