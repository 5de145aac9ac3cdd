package types

import (
  "time"
)

type RelationType string

const (
  RelationRequested RelationType = "REQUESTED"
  RelationAccepted  RelationType = "ACCEPT"
  RelationBlocked   RelationType = "BLOCKED"
)

// FriendRelation is a directed edge in the social graph: UserID holds the
// relation against FriendID. A BLOCKED edge means UserID has blocked FriendID.
type FriendRelation struct {
  ID        uint         `gorm:"primaryKey" json:"id"`
  UserID    uint         `gorm:"not null;index:idx_relation_pair,unique;column:user_id" json:"userId"`
  FriendID  uint         `gorm:"not null;index:idx_relation_pair,unique;column:friend_id" json:"friendId"`
  Type      RelationType `gorm:"not null;column:type" json:"type"`
  CreatedAt time.Time    `gorm:"not null;default:now()" json:"createdAt"`
  UpdatedAt time.Time    `gorm:"not null;default:now()" json:"updatedAt"`
}

func (FriendRelation) TableName() string {
  return "friend_relation"
}
