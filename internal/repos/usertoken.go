package repos

import (
  "context"

  "gorm.io/gorm"
  "gorm.io/gorm/clause"

  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/types"
)

type UserTokenRepo interface {
  Upsert(ctx context.Context, tx *gorm.DB, token *types.UserToken) error
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*types.UserToken, error)
  DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uint) error
}

type userTokenRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
  repoLog := baseLog.With("repo", "UserTokenRepo")
  return &userTokenRepo{db: db, log: repoLog}
}

func (ut *userTokenRepo) Upsert(ctx context.Context, tx *gorm.DB, token *types.UserToken) error {
  transaction := tx
  if transaction == nil {
    transaction = ut.db
  }
  return transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "user_id"}},
      DoUpdates: clause.AssignmentColumns([]string{"token", "expires_at"}),
    }).
    Create(token).Error
}

func (ut *userTokenRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*types.UserToken, error) {
  transaction := tx
  if transaction == nil {
    transaction = ut.db
  }
  var result types.UserToken
  err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    First(&result).Error
  if err == gorm.ErrRecordNotFound {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (ut *userTokenRepo) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uint) error {
  transaction := tx
  if transaction == nil {
    transaction = ut.db
  }
  return transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Delete(&types.UserToken{}).Error
}
