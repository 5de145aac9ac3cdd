package types

import (
  "time"

  "go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is the raw document-store shape. Users holds directory ids; storage
// does not enforce uniqueness, callers dedupe before writing.
type Chat struct {
  ID            primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
  ChatName      string              `bson:"chatName,omitempty" json:"chatName"`
  IsGroup       bool                `bson:"isGroup" json:"isGroup"`
  Users         []uint              `bson:"users" json:"users"`
  LatestMessage *primitive.ObjectID `bson:"latestMessage,omitempty" json:"latestMessage,omitempty"`
  GroupAdmin    uint                `bson:"groupAdmin,omitempty" json:"groupAdmin,omitempty"`
  CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
  UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// HasMember reports whether userID is in the chat member list.
func (c *Chat) HasMember(userID uint) bool {
  for _, id := range c.Users {
    if id == userID {
      return true
    }
  }
  return false
}

// HydratedChat is the fully populated form: member ids replaced with
// directory projections, latest message attached.
type HydratedChat struct {
  ID            primitive.ObjectID `json:"_id"`
  ChatName      string             `json:"chatName"`
  IsGroup       bool               `json:"isGroup"`
  Users         []UserProjection   `json:"users"`
  LatestMessage *Message           `json:"latestMessage,omitempty"`
  GroupAdmin    uint               `json:"groupAdmin,omitempty"`
  CreatedAt     time.Time          `json:"createdAt"`
  UpdatedAt     time.Time          `json:"updatedAt"`
}
