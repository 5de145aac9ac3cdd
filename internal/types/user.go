package types

import (
  "time"
)

type User struct {
  ID        uint      `gorm:"primaryKey" json:"id"`
  Username  string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
  Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
  Password  string    `gorm:"not null;column:password" json:"-"`
  Name      string    `gorm:"column:name" json:"name"`
  AvatarURL *string   `gorm:"column:avatar_url" json:"avatarUrl"`
  Verified  bool      `gorm:"not null;default:false;column:verified" json:"verified"`
  CreatedAt time.Time `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time `gorm:"not null;default:now()" json:"updatedAt"`
}

func (User) TableName() string {
  return "user"
}

// UserProjection is the public shape of a user attached to hydrated chats
// and messages. Password and verification state never leave the directory.
type UserProjection struct {
  ID        uint    `json:"id"`
  Username  string  `json:"username"`
  Email     string  `json:"email"`
  Name      string  `json:"name"`
  AvatarURL *string `json:"avatarUrl"`
}

func (u *User) Projection() UserProjection {
  return UserProjection{
    ID:        u.ID,
    Username:  u.Username,
    Email:     u.Email,
    Name:      u.Name,
    AvatarURL: u.AvatarURL,
  }
}

// PlaceholderUser stands in for a user id the directory cannot resolve.
// Hydration must never fail on a dangling reference.
func PlaceholderUser(id uint) UserProjection {
  return UserProjection{
    ID:       id,
    Username: "chirpuser",
    Email:    "chirp.user@email.com",
    Name:     "Chirp User",
  }
}
