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

type MessageRepo interface {
  Create(ctx context.Context, message *types.Message) (*types.Message, error)
  GetByID(ctx context.Context, messageID primitive.ObjectID) (*types.Message, error)
  ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]*types.Message, error)
  UpdateContent(ctx context.Context, messageID primitive.ObjectID, content string) error
  Delete(ctx context.Context, messageID primitive.ObjectID) error
}

type messageRepo struct {
  coll *mongo.Collection
  log  *logger.Logger
}

func NewMessageRepo(mdb *mongo.Database, baseLog *logger.Logger) MessageRepo {
  repoLog := baseLog.With("repo", "MessageRepo")
  return &messageRepo{coll: mdb.Collection(db.MessageCollection), log: repoLog}
}

func (mr *messageRepo) Create(ctx context.Context, message *types.Message) (*types.Message, error) {
  now := time.Now().UTC()
  message.ID = primitive.NewObjectID()
  message.CreatedAt = now
  message.UpdatedAt = now
  if _, err := mr.coll.InsertOne(ctx, message); err != nil {
    return nil, err
  }
  return message, nil
}

func (mr *messageRepo) GetByID(ctx context.Context, messageID primitive.ObjectID) (*types.Message, error) {
  var message types.Message
  err := mr.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&message)
  if errors.Is(err, mongo.ErrNoDocuments) {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &message, nil
}

func (mr *messageRepo) ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]*types.Message, error) {
  opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
  cursor, err := mr.coll.Find(ctx, bson.M{"chat": chatID}, opts)
  if err != nil {
    return nil, err
  }
  defer cursor.Close(ctx)

  var messages []*types.Message
  if err := cursor.All(ctx, &messages); err != nil {
    return nil, err
  }
  return messages, nil
}

func (mr *messageRepo) UpdateContent(ctx context.Context, messageID primitive.ObjectID, content string) error {
  update := bson.M{"$set": bson.M{
    "content":   content,
    "updatedAt": time.Now().UTC(),
  }}
  _, err := mr.coll.UpdateByID(ctx, messageID, update)
  return err
}

func (mr *messageRepo) Delete(ctx context.Context, messageID primitive.ObjectID) error {
  _, err := mr.coll.DeleteOne(ctx, bson.M{"_id": messageID})
  return err
}
