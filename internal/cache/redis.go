package cache

import (
  "context"
  "errors"
  "fmt"
  "time"

  goredis "github.com/redis/go-redis/v9"

  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/utils"
)

type redisCache struct {
  rdb *goredis.Client
  log *logger.Logger
}

func NewRedis(log *logger.Logger) (Cache, error) {
  cacheLog := log.With("service", "RedisCache")

  addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
  password := utils.GetEnv("REDIS_PASSWORD", "", log)

  rdb := goredis.NewClient(&goredis.Options{
    Addr:        addr,
    Password:    password,
    DialTimeout: 5 * time.Second,
  })

  ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
  defer cancel()
  if err := rdb.Ping(ctx).Err(); err != nil {
    _ = rdb.Close()
    return nil, fmt.Errorf("redis ping: %w", err)
  }

  cacheLog.Info("Connected to Redis", "addr", addr)
  return &redisCache{rdb: rdb, log: cacheLog}, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
  val, err := c.rdb.Get(ctx, key).Result()
  if errors.Is(err, goredis.Nil) {
    return "", false, nil
  }
  if err != nil {
    return "", false, err
  }
  return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
  if ttl <= 0 {
    ttl = DefaultTTL
  }
  return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
  return c.rdb.Del(ctx, key).Err()
}
