package db

import (
  "context"
  "fmt"
  "time"

  "go.mongodb.org/mongo-driver/bson"
  "go.mongodb.org/mongo-driver/mongo"
  "go.mongodb.org/mongo-driver/mongo/options"

  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/utils"
)

const (
  ChatCollection    = "chats"
  MessageCollection = "messages"
)

type MongoService struct {
  client *mongo.Client
  db     *mongo.Database
  log    *logger.Logger
}

func NewMongoService(ctx context.Context, log *logger.Logger) (*MongoService, error) {
  serviceLog := log.With("service", "MongoService")

  uri := utils.GetEnv("MONGO_URI", "mongodb://localhost:27017", log)
  name := utils.GetEnv("MONGO_NAME", "chirp", log)

  serviceLog.Info("Connecting to Mongo...")
  client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
  if err != nil {
    return nil, fmt.Errorf("failed to connect to mongo: %w", err)
  }

  pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
  defer cancel()
  if err := client.Ping(pingCtx, nil); err != nil {
    return nil, fmt.Errorf("failed to ping mongo: %w", err)
  }

  return &MongoService{client: client, db: client.Database(name), log: serviceLog}, nil
}

// EnsureIndexes creates the message indexes. MESSAGE_TTL_SECONDS > 0 turns on
// the optional retention policy: messages expire that many seconds after
// creation. Off by default.
func (s *MongoService) EnsureIndexes(ctx context.Context) error {
  messages := s.db.Collection(MessageCollection)

  models := []mongo.IndexModel{
    {Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: 1}}},
  }
  ttl := utils.GetEnvAsInt("MESSAGE_TTL_SECONDS", 0, s.log)
  if ttl > 0 {
    s.log.Info("Enabling message retention policy", "ttl_seconds", ttl)
    models = append(models, mongo.IndexModel{
      Keys:    bson.D{{Key: "createdAt", Value: 1}},
      Options: options.Index().SetExpireAfterSeconds(int32(ttl)),
    })
  }
  if _, err := messages.Indexes().CreateMany(ctx, models); err != nil {
    return fmt.Errorf("failed to create message indexes: %w", err)
  }

  chats := s.db.Collection(ChatCollection)
  if _, err := chats.Indexes().CreateOne(ctx, mongo.IndexModel{
    Keys: bson.D{{Key: "users", Value: 1}},
  }); err != nil {
    return fmt.Errorf("failed to create chat index: %w", err)
  }
  return nil
}

func (s *MongoService) DB() *mongo.Database {
  return s.db
}

func (s *MongoService) Close(ctx context.Context) error {
  return s.client.Disconnect(ctx)
}
