package services

import (
  "context"
  "fmt"

  "gorm.io/gorm"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// FriendService is the write surface of the social graph the fan-out engine
// reads. Friend request state transitions stay outside this module; only the
// block relation matters for delivery policy.
type FriendService interface {
  Block(ctx context.Context, userID, targetID uint) error
  Unblock(ctx context.Context, userID, targetID uint) error
}

type friendService struct {
  db           *gorm.DB
  log          *logger.Logger
  userRepo     repos.UserRepo
  relationRepo repos.FriendRelationRepo
}

func NewFriendService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, relationRepo repos.FriendRelationRepo) FriendService {
  serviceLog := log.With("service", "FriendService")
  return &friendService{db: db, log: serviceLog, userRepo: userRepo, relationRepo: relationRepo}
}

func (fs *friendService) Block(ctx context.Context, userID, targetID uint) error {
  if userID == targetID {
    return apperr.Validation("cannot block yourself")
  }
  found, err := fs.userRepo.GetByIDs(ctx, nil, []uint{targetID})
  if err != nil {
    return apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
  }
  if len(found) == 0 {
    return apperr.NotFound(apperr.CodeUserNotFound, "user %d not found", targetID)
  }
  if err := fs.relationRepo.SetRelation(ctx, nil, userID, targetID, types.RelationBlocked); err != nil {
    return apperr.Upstream(fmt.Errorf("failed to set block relation: %w", err))
  }
  return nil
}

func (fs *friendService) Unblock(ctx context.Context, userID, targetID uint) error {
  if err := fs.relationRepo.DeleteRelation(ctx, nil, userID, targetID, types.RelationBlocked); err != nil {
    return apperr.Upstream(fmt.Errorf("failed to delete block relation: %w", err))
  }
  return nil
}
