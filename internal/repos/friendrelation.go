package repos

import (
  "context"

  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// FriendRelationRepo is the Social Graph surface. The fan-out engine only
// needs the block predicate; Set/Delete back the block management endpoints.
type FriendRelationRepo interface {
  // IsBlockedByAny reports whether any of blockerIDs holds a BLOCKED edge
  // against targetID. Always reads the source of truth, never a cache.
  IsBlockedByAny(ctx context.Context, tx *gorm.DB, targetID uint, blockerIDs []uint) (bool, error)
  SetRelation(ctx context.Context, tx *gorm.DB, userID, friendID uint, relType types.RelationType) error
  DeleteRelation(ctx context.Context, tx *gorm.DB, userID, friendID uint, relType types.RelationType) error
}

type friendRelationRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewFriendRelationRepo(db *gorm.DB, baseLog *logger.Logger) FriendRelationRepo {
  repoLog := baseLog.With("repo", "FriendRelationRepo")
  return &friendRelationRepo{db: db, log: repoLog}
}

func (fr *friendRelationRepo) IsBlockedByAny(ctx context.Context, tx *gorm.DB, targetID uint, blockerIDs []uint) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = fr.db
  }
  if len(blockerIDs) == 0 {
    return false, nil
  }
  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.FriendRelation{}).
    Where("type = ? AND friend_id = ? AND user_id IN ?", types.RelationBlocked, targetID, blockerIDs).
    Count(&count).Error; err != nil {
    return false, err
  }
  return count > 0, nil
}

func (fr *friendRelationRepo) SetRelation(ctx context.Context, tx *gorm.DB, userID, friendID uint, relType types.RelationType) error {
  transaction := tx
  if transaction == nil {
    transaction = fr.db
  }
  relation := &types.FriendRelation{
    UserID:   userID,
    FriendID: friendID,
    Type:     relType,
  }
  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "user_id"}, {Name: "friend_id"}},
      DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
    }).
    Create(relation).Error
}

func (fr *friendRelationRepo) DeleteRelation(ctx context.Context, tx *gorm.DB, userID, friendID uint, relType types.RelationType) error {
  transaction := tx
  if transaction == nil {
    transaction = fr.db
  }
  return transaction.WithContext(ctx).
    Where("user_id = ? AND friend_id = ? AND type = ?", userID, friendID, relType).
    Delete(&types.FriendRelation{}).Error
}
