package services

import (
  "fmt"
  "math"
  "os"

  "github.com/go-audio/wav"

  "github.com/glavox/glavox-backend/internal/logger"
)

// AudioService probes uploaded speech clips. Clients upload WAV, so the
// duration can be read straight from the header without shelling out to
// ffprobe.
type AudioService interface {
  Duration(path string) (float64, error)
}

type audioService struct {
  log *logger.Logger
}

func NewAudioService(log *logger.Logger) AudioService {
  serviceLog := log.With("service", "AudioService")
  return &audioService{log: serviceLog}
}

// Duration reads a WAV file and returns its play time in whole seconds,
// rounded up. Undecodable or non-WAV input is an invalid-input error.
func (as *audioService) Duration(path string) (float64, error) {
  f, err := os.Open(path)
  if err != nil {
    return 0, fmt.Errorf("Failed to open audio file: %w", err)
  }
  defer f.Close()

  decoder := wav.NewDecoder(f)
  decoder.ReadInfo()
  if !decoder.IsValidFile() {
    return 0, fmt.Errorf("%w: not a valid wav file", ErrInvalidInput)
  }

  duration, err := decoder.Duration()
  if err != nil {
    return 0, fmt.Errorf("%w: could not read wav duration: %v", ErrInvalidInput, err)
  }

  seconds := math.Ceil(duration.Seconds())
  as.log.Debug("Probed audio duration", "path", path, "seconds", seconds)
  return seconds, nil
}
