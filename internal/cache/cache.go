package cache

import (
  "context"
  "fmt"
  "time"

  "go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultTTL bounds staleness of hydrated entries. There is no eviction
// beyond expiry; the cache is a latency aid, never the source of truth.
const DefaultTTL = 600 * time.Second

// Cache is a key/value store for serialized hydrated entities. Get reports
// a miss via ok=false; the caller owns the fallback fetch-and-repopulate.
type Cache interface {
  Get(ctx context.Context, key string) (value string, ok bool, err error)
  Set(ctx context.Context, key, value string, ttl time.Duration) error
  Del(ctx context.Context, key string) error
}

func MessageKey(id primitive.ObjectID) string {
  return fmt.Sprintf("message:%s", id.Hex())
}

func ChatKey(id primitive.ObjectID) string {
  return fmt.Sprintf("chat:%s", id.Hex())
}

func UserKey(id uint) string {
  return fmt.Sprintf("user:%d", id)
}
