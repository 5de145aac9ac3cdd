package services

import (
  "context"
  "fmt"
  "strings"

  "github.com/go-playground/validator/v10"
  "github.com/samber/lo"
  "gorm.io/gorm"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/cache"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/requestdata"
  "github.com/chirpchat/chirp-backend/internal/types"
)

var validate = validator.New()

type UserService interface {
  GetMe(ctx context.Context) (*types.User, error)
  GetProjection(ctx context.Context, userID uint) (*types.UserProjection, error)
  Search(ctx context.Context, usernamePrefix string) ([]types.UserProjection, error)
}

type userService struct {
  db        *gorm.DB
  log       *logger.Logger
  userRepo  repos.UserRepo
  populator *cache.Populator
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, populator *cache.Populator) UserService {
  serviceLog := log.With("service", "UserService")
  return &userService{db: db, log: serviceLog, userRepo: userRepo, populator: populator}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == 0 {
    return nil, apperr.Unauthorized("request data not set in context")
  }
  found, err := us.userRepo.GetByIDs(ctx, nil, []uint{rd.UserID})
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
  }
  if len(found) == 0 {
    return nil, apperr.NotFound(apperr.CodeUserNotFound, "user %d not found", rd.UserID)
  }
  return found[0], nil
}

// GetProjection is the cached profile lookup other users see. It reads
// through the user: key so repeated hydrations of a hot profile stay off
// the directory.
func (us *userService) GetProjection(ctx context.Context, userID uint) (*types.UserProjection, error) {
  if userID == 0 {
    return nil, apperr.Validation("user id is required")
  }
  return us.populator.User(ctx, userID)
}

func (us *userService) Search(ctx context.Context, usernamePrefix string) ([]types.UserProjection, error) {
  prefix := strings.TrimSpace(usernamePrefix)
  if prefix == "" {
    return nil, apperr.Validation("search query is required")
  }
  found, err := us.userRepo.SearchByUsername(ctx, nil, prefix, 20)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("user search failed: %w", err))
  }
  return lo.Map(found, func(u *types.User, _ int) types.UserProjection {
    return u.Projection()
  }), nil
}
