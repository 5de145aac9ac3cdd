package types

import (
  "time"
)

// UserToken stores the currently valid refresh token for a user. One row per
// user; refresh rotates it, logout deletes it.
type UserToken struct {
  ID        uint      `gorm:"primaryKey" json:"id"`
  UserID    uint      `gorm:"not null;uniqueIndex;column:user_id" json:"userId"`
  Token     string    `gorm:"not null;column:token" json:"-"`
  ExpiresAt time.Time `gorm:"not null;column:expires_at" json:"expiresAt"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
}

func (UserToken) TableName() string {
  return "user_token"
}
