package repos

import (
  "context"
  "time"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/types"
)

// SessionAggregate folds a user's sessions into rollup analytics.
type SessionAggregate struct {
  TotalSessions       int64     `json:"total_sessions"`
  TotalSpeakingTime   float64   `json:"total_speaking_time"`
  AverageSpeakingTime float64   `json:"average_speaking_time"`
  TotalSpeakingCount  int64     `json:"total_speaking_count"`
}

type SessionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error)
  GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.Session, error)
  GetOpenByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Session, error)
  ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Session, error)
  ListAllByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Session, error)
  ListAllWithUser(ctx context.Context, tx *gorm.DB) ([]*types.Session, error)
  Save(ctx context.Context, tx *gorm.DB, session *types.Session) error
  AggregateByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since *time.Time) (*SessionAggregate, error)
}

type sessionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
  repoLog := baseLog.With("repo", "SessionRepo")
  return &sessionRepo{db: db, log: repoLog}
}

func (sr *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if session.ID == uuid.Nil {
    session.ID = uuid.New()
  }

  if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
    return nil, err
  }
  return session, nil
}

func (sr *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Session
  if err := transaction.WithContext(ctx).
    Where("id = ?", sessionID).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (sr *sessionRepo) GetOpenByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Session
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND exit_time IS NULL", userID).
    Order("enter_time DESC").
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (sr *sessionRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  if limit <= 0 {
    limit = 10
  }

  var results []*types.Session
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("enter_time DESC").
    Limit(limit).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (sr *sessionRepo) ListAllByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Session
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("enter_time DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (sr *sessionRepo) ListAllWithUser(ctx context.Context, tx *gorm.DB) ([]*types.Session, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  var results []*types.Session
  if err := transaction.WithContext(ctx).
    Preload("User").
    Order("enter_time DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (sr *sessionRepo) Save(ctx context.Context, tx *gorm.DB, session *types.Session) error {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }
  return transaction.WithContext(ctx).Save(session).Error
}

func (sr *sessionRepo) AggregateByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since *time.Time) (*SessionAggregate, error) {
  transaction := tx
  if transaction == nil {
    transaction = sr.db
  }

  query := transaction.WithContext(ctx).
    Model(&types.Session{}).
    Where("user_id = ?", userID)
  if since != nil {
    query = query.Where("enter_time >= ?", *since)
  }

  var agg SessionAggregate
  if err := query.
    Select(`
      COUNT(*) AS total_sessions,
      COALESCE(SUM(total_speaking_time_in_seconds), 0) AS total_speaking_time,
      COALESCE(AVG(total_speaking_time_in_seconds), 0) AS average_speaking_time,
      COALESCE(SUM(speaking_count), 0) AS total_speaking_count
    `).
    Scan(&agg).Error; err != nil {
    return nil, err
  }
  return &agg, nil
}
