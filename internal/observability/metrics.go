package observability

import (
  "github.com/prometheus/client_golang/prometheus"
  "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
  SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
    Name: "glavox_sessions_opened_total",
    Help: "Practice sessions created",
  })

  SessionsResumed = promauto.NewCounter(prometheus.CounterOpts{
    Name: "glavox_sessions_resumed_total",
    Help: "Create calls that returned an already open session",
  })

  SessionsClosed = promauto.NewCounter(prometheus.CounterOpts{
    Name: "glavox_sessions_closed_total",
    Help: "Practice sessions closed",
  })

  UtterancesRecorded = promauto.NewCounter(prometheus.CounterOpts{
    Name: "glavox_utterances_recorded_total",
    Help: "Speaking clips folded into session aggregates",
  })

  SpeechAnalyses = promauto.NewCounter(prometheus.CounterOpts{
    Name: "glavox_speech_analyses_total",
    Help: "Transcripts run through the extractor and scorer",
  })

  AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
    Name:    "glavox_speech_analysis_duration_seconds",
    Help:    "Extractor to persisted final scores latency",
    Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
  })

  RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
    Name:    "glavox_http_request_duration_seconds",
    Help:    "HTTP request latency",
    Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
  }, []string{"method", "path", "status"})
)
