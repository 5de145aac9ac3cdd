package repos

import (
  "context"
  "errors"
  "time"

  "go.mongodb.org/mongo-driver/bson"
  "go.mongodb.org/mongo-driver/bson/primitive"
  "go.mongodb.org/mongo-driver/mongo"
  "go.mongodb.org/mongo-driver/mongo/options"

  "github.com/chirpchat/chirp-backend/internal/db"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// ChatRepo owns Chat documents. Get* methods return (nil, nil) when the
// document does not exist; callers decide the error shape.
type ChatRepo interface {
  Create(ctx context.Context, chat *types.Chat) (*types.Chat, error)
  GetByID(ctx context.Context, chatID primitive.ObjectID) (*types.Chat, error)
  FindDirect(ctx context.Context, userA, userB uint) (*types.Chat, error)
  ListByMember(ctx context.Context, userID uint) ([]*types.Chat, error)
  UpdateLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error
  UpdateName(ctx context.Context, chatID primitive.ObjectID, name string) error
  SetMembers(ctx context.Context, chatID primitive.ObjectID, users []uint) error
}

type chatRepo struct {
  coll *mongo.Collection
  log  *logger.Logger
}

func NewChatRepo(mdb *mongo.Database, baseLog *logger.Logger) ChatRepo {
  repoLog := baseLog.With("repo", "ChatRepo")
  return &chatRepo{coll: mdb.Collection(db.ChatCollection), log: repoLog}
}

func (cr *chatRepo) Create(ctx context.Context, chat *types.Chat) (*types.Chat, error) {
  now := time.Now().UTC()
  chat.ID = primitive.NewObjectID()
  chat.CreatedAt = now
  chat.UpdatedAt = now
  if _, err := cr.coll.InsertOne(ctx, chat); err != nil {
    return nil, err
  }
  return chat, nil
}

func (cr *chatRepo) GetByID(ctx context.Context, chatID primitive.ObjectID) (*types.Chat, error) {
  var chat types.Chat
  err := cr.coll.FindOne(ctx, bson.M{"_id": chatID}).Decode(&chat)
  if errors.Is(err, mongo.ErrNoDocuments) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &chat, nil
}

func (cr *chatRepo) FindDirect(ctx context.Context, userA, userB uint) (*types.Chat, error) {
  filter := bson.M{
    "isGroup": false,
    "users":   bson.M{"$all": []uint{userA, userB}},
  }
  var chat types.Chat
  err := cr.coll.FindOne(ctx, filter).Decode(&chat)
  if errors.Is(err, mongo.ErrNoDocuments) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &chat, nil
}

func (cr *chatRepo) ListByMember(ctx context.Context, userID uint) ([]*types.Chat, error) {
  opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
  cursor, err := cr.coll.Find(ctx, bson.M{"users": userID}, opts)
  if err != nil {
    return nil, err
  }
  defer cursor.Close(ctx)

  var chats []*types.Chat
  if err := cursor.All(ctx, &chats); err != nil {
    return nil, err
  }
  return chats, nil
}

// UpdateLatestMessage is last-write-wins: concurrent sends to the same chat
// may leave the pointer at whichever write landed last.
func (cr *chatRepo) UpdateLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
  update := bson.M{"$set": bson.M{
    "latestMessage": messageID,
    "updatedAt":     time.Now().UTC(),
  }}
  _, err := cr.coll.UpdateByID(ctx, chatID, update)
  return err
}

func (cr *chatRepo) UpdateName(ctx context.Context, chatID primitive.ObjectID, name string) error {
  update := bson.M{"$set": bson.M{
    "chatName":  name,
    "updatedAt": time.Now().UTC(),
  }}
  _, err := cr.coll.UpdateByID(ctx, chatID, update)
  return err
}

func (cr *chatRepo) SetMembers(ctx context.Context, chatID primitive.ObjectID, users []uint) error {
  update := bson.M{"$set": bson.M{
    "users":     users,
    "updatedAt": time.Now().UTC(),
  }}
  _, err := cr.coll.UpdateByID(ctx, chatID, update)
  return err
}
