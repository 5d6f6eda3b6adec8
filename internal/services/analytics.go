package services

import (
  "context"
  "fmt"
  "sort"
  "time"

  "github.com/google/uuid"
  "golang.org/x/sync/errgroup"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/repos"
  "github.com/glavox/glavox-backend/internal/types"
  "github.com/glavox/glavox-backend/internal/utils"
)

// SpeakingStats rolls per-utterance aggregates up across many sessions.
type SpeakingStats struct {
  TotalSpeakingTime float64   `json:"total_speaking_time"`
  AverageDuration   float64   `json:"average_duration"`
  LongestDuration   float64   `json:"longest_duration"`
  ShortestDuration  float64   `json:"shortest_duration"`
  SpeakingCount     int       `json:"speaking_count"`
}

// AnalyticsOverview pairs a user's all-time aggregates with the trailing
// week's.
type AnalyticsOverview struct {
  AllTime *repos.SessionAggregate   `json:"all_time"`
  Weekly  *repos.SessionAggregate   `json:"weekly"`
}

// ClusterEntry is one student's row in the duration clustering report.
type ClusterEntry struct {
  Name                  string    `json:"name"`
  DurationMinutes       float64   `json:"duration_minutes"`
  FormattedDuration     string    `json:"formatted_duration"`
  EnterTime             string    `json:"enter_time"`
  SpeakingCount         int       `json:"speaking_count"`
  FormattedSpeakingTime string    `json:"formatted_speaking_time"`
}

// StudentClusters buckets sessions by chat duration: under 15 minutes,
// 15 to 30 minutes, over 30 minutes.
type StudentClusters struct {
  Cluster1 []ClusterEntry    `json:"cluster1"`
  Cluster2 []ClusterEntry    `json:"cluster2"`
  Cluster3 []ClusterEntry    `json:"cluster3"`
}

type AnalyticsService interface {
  UserAggregate(ctx context.Context, userID uuid.UUID) (*repos.SessionAggregate, error)
  WeeklyAggregate(ctx context.Context, userID uuid.UUID) (*repos.SessionAggregate, error)
  Overview(ctx context.Context, userID uuid.UUID) (*AnalyticsOverview, error)
  SpeakingStatsForUser(ctx context.Context, userID uuid.UUID) (*SpeakingStats, error)
  StudentClusters(ctx context.Context) (*StudentClusters, error)
}

type analyticsService struct {
  log         *logger.Logger
  sessionRepo repos.SessionRepo
}

func NewAnalyticsService(log *logger.Logger, sessionRepo repos.SessionRepo) AnalyticsService {
  serviceLog := log.With("service", "AnalyticsService")
  return &analyticsService{log: serviceLog, sessionRepo: sessionRepo}
}

func (as *analyticsService) UserAggregate(ctx context.Context, userID uuid.UUID) (*repos.SessionAggregate, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: a user id is required", ErrInvalidInput)
  }
  agg, err := as.sessionRepo.AggregateByUserID(ctx, nil, userID, nil)
  if err != nil {
    return nil, fmt.Errorf("Failed to aggregate sessions: %w", err)
  }
  return agg, nil
}

func (as *analyticsService) WeeklyAggregate(ctx context.Context, userID uuid.UUID) (*repos.SessionAggregate, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: a user id is required", ErrInvalidInput)
  }
  oneWeekAgo := time.Now().AddDate(0, 0, -7)
  agg, err := as.sessionRepo.AggregateByUserID(ctx, nil, userID, &oneWeekAgo)
  if err != nil {
    return nil, fmt.Errorf("Failed to aggregate weekly sessions: %w", err)
  }
  return agg, nil
}

func (as *analyticsService) Overview(ctx context.Context, userID uuid.UUID) (*AnalyticsOverview, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: a user id is required", ErrInvalidInput)
  }

  overview := &AnalyticsOverview{}
  g, gctx := errgroup.WithContext(ctx)
  g.Go(func() error {
    agg, err := as.sessionRepo.AggregateByUserID(gctx, nil, userID, nil)
    if err != nil {
      return fmt.Errorf("Failed to aggregate sessions: %w", err)
    }
    overview.AllTime = agg
    return nil
  })
  g.Go(func() error {
    oneWeekAgo := time.Now().AddDate(0, 0, -7)
    agg, err := as.sessionRepo.AggregateByUserID(gctx, nil, userID, &oneWeekAgo)
    if err != nil {
      return fmt.Errorf("Failed to aggregate weekly sessions: %w", err)
    }
    overview.Weekly = agg
    return nil
  })
  if err := g.Wait(); err != nil {
    return nil, err
  }
  return overview, nil
}

func (as *analyticsService) SpeakingStatsForUser(ctx context.Context, userID uuid.UUID) (*SpeakingStats, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: a user id is required", ErrInvalidInput)
  }
  sessions, err := as.sessionRepo.ListAllByUserID(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("Failed to list sessions: %w", err)
  }
  stats := CalculateSpeakingStats(sessions)
  return &stats, nil
}

func (as *analyticsService) StudentClusters(ctx context.Context) (*StudentClusters, error) {
  sessions, err := as.sessionRepo.ListAllWithUser(ctx, nil)
  if err != nil {
    return nil, fmt.Errorf("Failed to list sessions: %w", err)
  }

  clusters := &StudentClusters{
    Cluster1: []ClusterEntry{},
    Cluster2: []ClusterEntry{},
    Cluster3: []ClusterEntry{},
  }

  for _, session := range sessions {
    if session.User == nil {
      continue
    }
    minutes := utils.ConvertToMinutes(float64(session.TotalChatDurationInSeconds))
    entry := ClusterEntry{
      Name:                  session.User.FirstName + " " + session.User.LastName,
      DurationMinutes:       minutes,
      FormattedDuration:     fmt.Sprintf("%g min", minutes),
      EnterTime:             utils.FormatISTDateTime(session.EnterTime),
      SpeakingCount:         session.SpeakingCount,
      FormattedSpeakingTime: session.FormattedSpeakingTime,
    }
    switch {
    case minutes < 15:
      clusters.Cluster1 = append(clusters.Cluster1, entry)
    case minutes <= 30:
      clusters.Cluster2 = append(clusters.Cluster2, entry)
    default:
      clusters.Cluster3 = append(clusters.Cluster3, entry)
    }
  }

  for _, bucket := range [][]ClusterEntry{clusters.Cluster1, clusters.Cluster2, clusters.Cluster3} {
    sort.Slice(bucket, func(i, j int) bool {
      return bucket[i].DurationMinutes > bucket[j].DurationMinutes
    })
  }

  return clusters, nil
}

// CalculateSpeakingStats folds per-session aggregates into one rollup.
// Exposed as a pure function so read projections can reuse it.
func CalculateSpeakingStats(sessions []*types.Session) SpeakingStats {
  stats := SpeakingStats{}
  if len(sessions) == 0 {
    return stats
  }

  var shortest *float64
  for _, session := range sessions {
    stats.TotalSpeakingTime += session.TotalSpeakingTimeInSeconds
    stats.SpeakingCount += session.SpeakingCount
    if session.LongestDurationInSeconds > stats.LongestDuration {
      stats.LongestDuration = session.LongestDurationInSeconds
    }
    if session.ShortestDurationInSeconds != nil {
      if shortest == nil || *session.ShortestDurationInSeconds < *shortest {
        shortest = session.ShortestDurationInSeconds
      }
    }
  }
  if shortest != nil {
    stats.ShortestDuration = *shortest
  }
  if stats.SpeakingCount > 0 {
    stats.AverageDuration = stats.TotalSpeakingTime / float64(stats.SpeakingCount)
  }
  return stats
}
