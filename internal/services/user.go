package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/glavox/glavox-backend/internal/logger"
  "github.com/glavox/glavox-backend/internal/normalization"
  "github.com/glavox/glavox-backend/internal/repos"
  "github.com/glavox/glavox-backend/internal/requestdata"
  "github.com/glavox/glavox-backend/internal/types"
)

// UserUpdate carries the profile fields a client may change. Nil means
// leave the field as is.
type UserUpdate struct {
  FirstName *string   `json:"first_name"`
  LastName  *string   `json:"last_name"`
}

type UserService interface {
  GetMe(ctx context.Context) (*types.User, error)
  UpdateMe(ctx context.Context, update UserUpdate) (*types.User, error)
  UpdateAvatar(ctx context.Context, avatarPath string) (*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
  serviceLog := log.With("service", "UserService")
  return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) currentUser(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, fmt.Errorf("No request data found in context")
  }
  users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
  if err != nil {
    return nil, fmt.Errorf("Failed to load user: %w", err)
  }
  if len(users) == 0 {
    return nil, fmt.Errorf("%w: %s", ErrUserNotFound, rd.UserID)
  }
  return users[0], nil
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
  return us.currentUser(ctx)
}

func (us *userService) UpdateMe(ctx context.Context, update UserUpdate) (*types.User, error) {
  user, err := us.currentUser(ctx)
  if err != nil {
    return nil, err
  }
  if update.FirstName != nil {
    firstName := normalization.TrimInputString(*update.FirstName)
    if firstName == "" {
      return nil, fmt.Errorf("%w: first name must not be empty", ErrInvalidInput)
    }
    user.FirstName = firstName
  }
  if update.LastName != nil {
    lastName := normalization.TrimInputString(*update.LastName)
    if lastName == "" {
      return nil, fmt.Errorf("%w: last name must not be empty", ErrInvalidInput)
    }
    user.LastName = lastName
  }
  if err := us.userRepo.Update(ctx, nil, user); err != nil {
    return nil, fmt.Errorf("Failed to update user: %w", err)
  }
  return user, nil
}

// UpdateAvatar points the current user at a newly stored avatar file.
// The caller is responsible for having written the file to avatarPath.
func (us *userService) UpdateAvatar(ctx context.Context, avatarPath string) (*types.User, error) {
  if avatarPath == "" {
    return nil, fmt.Errorf("%w: an avatar path is required", ErrInvalidInput)
  }
  user, err := us.currentUser(ctx)
  if err != nil {
    return nil, err
  }
  user.AvatarPath = avatarPath
  if err := us.userRepo.Update(ctx, nil, user); err != nil {
    return nil, fmt.Errorf("Failed to update user avatar: %w", err)
  }
  us.log.Debug("Updated user avatar", "user_id", user.ID, "path", avatarPath)
  return user, nil
}
