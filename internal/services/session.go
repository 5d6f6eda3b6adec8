package services

import (
  "context"
  "fmt"
  "sync"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/observability"
  "github.com/glavox/glavox-backend/internal/repos"
  "github.com/glavox/glavox-backend/internal/types"
  "github.com/glavox/glavox-backend/internal/utils"
)

type SessionService interface {
  CreateOrResume(ctx context.Context, userID uuid.UUID, enterTime *time.Time) (*types.Session, bool, error)
  RecordUtterance(ctx context.Context, sessionID uuid.UUID, durationSeconds float64) (*types.Session, error)
  RecordScoring(ctx context.Context, sessionID uuid.UUID, scores types.ScoreSet, metrics types.MetricSnapshot) (types.ScoreSet, error)
  Close(ctx context.Context, sessionID uuid.UUID, exitTime *time.Time) (*types.Session, error)
  GetByID(ctx context.Context, sessionID uuid.UUID) (*types.Session, error)
  ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Session, error)
  ActiveForUser(ctx context.Context, userID uuid.UUID) (*types.Session, error)
}

type sessionService struct {
  db          *gorm.DB
  log         *logger.Logger
  sessionRepo repos.SessionRepo

  // Mutations against the same session must not interleave, or two
  // concurrent read-modify-write cycles would clobber each other's
  // aggregate updates. Independent sessions proceed in parallel.
  locksMu sync.Mutex
  locks   map[uuid.UUID]*sync.Mutex
}

func NewSessionService(db *gorm.DB, log *logger.Logger, sessionRepo repos.SessionRepo) SessionService {
  serviceLog := log.With("service", "SessionService")
  return &sessionService{
    db:          db,
    log:         serviceLog,
    sessionRepo: sessionRepo,
    locks:       map[uuid.UUID]*sync.Mutex{},
  }
}

func (ss *sessionService) lockFor(key uuid.UUID) *sync.Mutex {
  ss.locksMu.Lock()
  defer ss.locksMu.Unlock()
  mu, ok := ss.locks[key]
  if !ok {
    mu = &sync.Mutex{}
    ss.locks[key] = mu
  }
  return mu
}

func (ss *sessionService) releaseLock(key uuid.UUID) {
  ss.locksMu.Lock()
  delete(ss.locks, key)
  ss.locksMu.Unlock()
}

func (ss *sessionService) CreateOrResume(ctx context.Context, userID uuid.UUID, enterTime *time.Time) (*types.Session, bool, error) {
  if userID == uuid.Nil {
    return nil, false, fmt.Errorf("%w: a user id is required to create a session", ErrInvalidInput)
  }

  // Keyed on the user so two concurrent creates cannot both miss the
  // open-session lookup and insert duplicates.
  mu := ss.lockFor(userID)
  mu.Lock()
  defer mu.Unlock()

  existing, err := ss.sessionRepo.GetOpenByUserID(ctx, nil, userID)
  if err != nil {
    return nil, false, fmt.Errorf("Failed to look up open session: %w", err)
  }
  if existing != nil {
    ss.log.Debug("Returning already open session", "session_id", existing.ID, "user_id", userID)
    observability.SessionsResumed.Inc()
    return existing, false, nil
  }

  enter := time.Now()
  if enterTime != nil {
    enter = *enterTime
  }

  session := &types.Session{
    UserID:                userID,
    EnterTime:             enter,
    FormattedSpeakingTime: utils.FormatDuration(0),
    FormattedChatDuration: utils.FormatDuration(0),
  }
  created, err := ss.sessionRepo.Create(ctx, nil, session)
  if err != nil {
    return nil, false, fmt.Errorf("Failed to create session: %w", err)
  }
  ss.log.Info("Created session", "session_id", created.ID, "user_id", userID)
  observability.SessionsOpened.Inc()
  return created, true, nil
}

// mutate runs fn against the session under its per-session lock and
// persists the result in one transaction, so every aggregate update is
// all-or-nothing from the caller's perspective.
func (ss *sessionService) mutate(ctx context.Context, sessionID uuid.UUID, fn func(session *types.Session) error) (*types.Session, error) {
  if sessionID == uuid.Nil {
    return nil, fmt.Errorf("%w: a session id is required", ErrInvalidInput)
  }

  mu := ss.lockFor(sessionID)
  mu.Lock()
  defer mu.Unlock()

  var session *types.Session
  err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    found, err := ss.sessionRepo.GetByID(ctx, tx, sessionID)
    if err != nil {
      return fmt.Errorf("Failed to load session: %w", err)
    }
    if found == nil {
      return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
    }
    if err := fn(found); err != nil {
      return err
    }
    if err := ss.sessionRepo.Save(ctx, tx, found); err != nil {
      return fmt.Errorf("Failed to save session: %w", err)
    }
    session = found
    return nil
  })
  if err != nil {
    return nil, err
  }
  return session, nil
}

func (ss *sessionService) RecordUtterance(ctx context.Context, sessionID uuid.UUID, durationSeconds float64) (*types.Session, error) {
  if durationSeconds < 0 {
    return nil, fmt.Errorf("%w: utterance duration must not be negative", ErrInvalidInput)
  }

  session, err := ss.mutate(ctx, sessionID, func(session *types.Session) error {
    session.SpeakingCount++
    session.TotalSpeakingTimeInSeconds += durationSeconds
    if durationSeconds > session.LongestDurationInSeconds {
      session.LongestDurationInSeconds = durationSeconds
    }
    if session.ShortestDurationInSeconds == nil || durationSeconds < *session.ShortestDurationInSeconds {
      d := durationSeconds
      session.ShortestDurationInSeconds = &d
    }
    session.AverageDurationInSeconds = session.TotalSpeakingTimeInSeconds / float64(session.SpeakingCount)
    session.FormattedSpeakingTime = utils.FormatDuration(session.TotalSpeakingTimeInSeconds)
    return nil
  })
  if err != nil {
    return nil, err
  }
  observability.UtterancesRecorded.Inc()
  return session, nil
}

func (ss *sessionService) RecordScoring(ctx context.Context, sessionID uuid.UUID, scores types.ScoreSet, metrics types.MetricSnapshot) (types.ScoreSet, error) {
  var finalScores types.ScoreSet
  _, err := ss.mutate(ctx, sessionID, func(session *types.Session) error {
    session.ScoringHistory = append(session.ScoringHistory, types.ScoringEntry{
      Timestamp: time.Now(),
      Scores:    scores,
      Metrics:   metrics,
    })
    // Full recompute over the entire history rather than an incremental
    // running average: O(history) per call, but immune to float drift.
    session.FinalScores = averageScores(session.ScoringHistory)
    finalScores = session.FinalScores
    return nil
  })
  if err != nil {
    return types.ScoreSet{}, err
  }
  return finalScores, nil
}

func averageScores(history []types.ScoringEntry) types.ScoreSet {
  if len(history) == 0 {
    return types.ScoreSet{}
  }
  var sum types.ScoreSet
  for _, entry := range history {
    sum.Pronunciation += entry.Scores.Pronunciation
    sum.Confidence += entry.Scores.Confidence
    sum.Clarity += entry.Scores.Clarity
    sum.ResponseTime += entry.Scores.ResponseTime
    sum.InteractionFlow += entry.Scores.InteractionFlow
    sum.Combined += entry.Scores.Combined
  }
  n := float64(len(history))
  return types.ScoreSet{
    Pronunciation:   sum.Pronunciation / n,
    Confidence:      sum.Confidence / n,
    Clarity:         sum.Clarity / n,
    ResponseTime:    sum.ResponseTime / n,
    InteractionFlow: sum.InteractionFlow / n,
    Combined:        sum.Combined / n,
  }
}

func (ss *sessionService) Close(ctx context.Context, sessionID uuid.UUID, exitTime *time.Time) (*types.Session, error) {
  closed := false
  session, err := ss.mutate(ctx, sessionID, func(session *types.Session) error {
    if session.ExitTime != nil {
      // Already closed; leave the exit time and duration untouched.
      ss.log.Info("Close called on an already closed session", "session_id", session.ID)
      return nil
    }
    exit := time.Now()
    if exitTime != nil {
      exit = *exitTime
    }
    session.ExitTime = &exit
    session.TotalChatDurationInSeconds = utils.DurationInSeconds(session.EnterTime, exit)
    session.FormattedChatDuration = utils.FormatDuration(float64(session.TotalChatDurationInSeconds))
    closed = true
    return nil
  })
  if err != nil {
    return nil, err
  }
  // A closed session takes no further mutations, so its lock entry can
  // go. This keeps the lock map bounded by the number of open sessions.
  ss.releaseLock(sessionID)
  if closed {
    observability.SessionsClosed.Inc()
  }
  return session, nil
}

func (ss *sessionService) GetByID(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
  if sessionID == uuid.Nil {
    return nil, fmt.Errorf("%w: a session id is required", ErrInvalidInput)
  }
  session, err := ss.sessionRepo.GetByID(ctx, nil, sessionID)
  if err != nil {
    return nil, fmt.Errorf("Failed to load session: %w", err)
  }
  if session == nil {
    return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
  }
  return session, nil
}

func (ss *sessionService) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*types.Session, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: a user id is required", ErrInvalidInput)
  }
  sessions, err := ss.sessionRepo.ListByUserID(ctx, nil, userID, limit)
  if err != nil {
    return nil, fmt.Errorf("Failed to list sessions: %w", err)
  }
  return sessions, nil
}

func (ss *sessionService) ActiveForUser(ctx context.Context, userID uuid.UUID) (*types.Session, error) {
  if userID == uuid.Nil {
    return nil, fmt.Errorf("%w: a user id is required", ErrInvalidInput)
  }
  session, err := ss.sessionRepo.GetOpenByUserID(ctx, nil, userID)
  if err != nil {
    return nil, fmt.Errorf("Failed to look up open session: %w", err)
  }
  return session, nil
}
