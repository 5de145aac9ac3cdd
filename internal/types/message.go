package types

import (
  "time"

  "go.mongodb.org/mongo-driver/bson/primitive"
)

type Message struct {
  ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
  Sender    uint               `bson:"sender" json:"sender"`
  Content   string             `bson:"content" json:"content"`
  Chat      primitive.ObjectID `bson:"chat" json:"chat"`
  CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
  UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HydratedMessage is a Message with the sender replaced by a directory
// projection and the chat reference replaced by a hydrated chat.
type HydratedMessage struct {
  ID        primitive.ObjectID `json:"_id"`
  Sender    UserProjection     `json:"sender"`
  Content   string             `json:"content"`
  Chat      HydratedChat       `json:"chat"`
  CreatedAt time.Time          `json:"createdAt"`
  UpdatedAt time.Time          `json:"updatedAt"`
}

// MessageView is a chat-history row: sender resolved, chat left as an id.
type MessageView struct {
  ID        primitive.ObjectID `json:"_id"`
  Sender    UserProjection     `json:"sender"`
  Content   string             `json:"content"`
  Chat      primitive.ObjectID `json:"chat"`
  CreatedAt time.Time          `json:"createdAt"`
  UpdatedAt time.Time          `json:"updatedAt"`
}
