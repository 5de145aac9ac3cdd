package cache

import (
  "context"
  "encoding/json"
  "fmt"

  "go.mongodb.org/mongo-driver/bson/primitive"
  "golang.org/x/sync/singleflight"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/hydrate"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// Populator composes the read-through convention: cache hit returns the
// cached hydrated entity, miss loads from the store, hydrates, writes the
// entry back and returns it. Concurrent misses on one key are coalesced so
// a hot chat does not stampede the stores.
type Populator struct {
  cache    Cache
  messages repos.MessageRepo
  chats    repos.ChatRepo
  users    repos.UserRepo
  hydrator *hydrate.Hydrator
  group    singleflight.Group
  log      *logger.Logger
}

func NewPopulator(c Cache, messages repos.MessageRepo, chats repos.ChatRepo, users repos.UserRepo, hydrator *hydrate.Hydrator, baseLog *logger.Logger) *Populator {
  return &Populator{
    cache:    c,
    messages: messages,
    chats:    chats,
    users:    users,
    hydrator: hydrator,
    log:      baseLog.With("component", "CachePopulator"),
  }
}

func (p *Populator) Message(ctx context.Context, messageID primitive.ObjectID) (*types.HydratedMessage, error) {
  key := MessageKey(messageID)
  if raw, ok, err := p.cache.Get(ctx, key); err != nil {
    p.log.Warn("Cache read failed, falling back to store", "key", key, "error", err)
  } else if ok {
    var cached types.HydratedMessage
    if err := json.Unmarshal([]byte(raw), &cached); err == nil {
      return &cached, nil
    }
    p.log.Warn("Dropping undecodable cache entry", "key", key)
    _ = p.cache.Del(ctx, key)
  }

  v, err, _ := p.group.Do(key, func() (interface{}, error) {
    message, err := p.messages.GetByID(ctx, messageID)
    if err != nil {
      return nil, apperr.Upstream(fmt.Errorf("message lookup failed: %w", err))
    }
    if message == nil {
      return nil, apperr.BadRequest(apperr.CodeMsgNotFound, "message %s not found", messageID.Hex())
    }
    hydrated, err := p.hydrator.Message(ctx, message)
    if err != nil {
      return nil, err
    }
    p.store(ctx, key, hydrated)
    return hydrated, nil
  })
  if err != nil {
    return nil, err
  }
  return v.(*types.HydratedMessage), nil
}

func (p *Populator) Chat(ctx context.Context, chatID primitive.ObjectID) (*types.HydratedChat, error) {
  key := ChatKey(chatID)
  if raw, ok, err := p.cache.Get(ctx, key); err != nil {
    p.log.Warn("Cache read failed, falling back to store", "key", key, "error", err)
  } else if ok {
    var cached types.HydratedChat
    if err := json.Unmarshal([]byte(raw), &cached); err == nil {
      return &cached, nil
    }
    p.log.Warn("Dropping undecodable cache entry", "key", key)
    _ = p.cache.Del(ctx, key)
  }

  v, err, _ := p.group.Do(key, func() (interface{}, error) {
    chat, err := p.chats.GetByID(ctx, chatID)
    if err != nil {
      return nil, apperr.Upstream(fmt.Errorf("chat lookup failed: %w", err))
    }
    if chat == nil {
      return nil, apperr.BadRequest(apperr.CodeChatNotFound, "chat %s not found", chatID.Hex())
    }
    hydrated, err := p.hydrator.Chat(ctx, chat)
    if err != nil {
      return nil, err
    }
    p.store(ctx, key, hydrated)
    return hydrated, nil
  })
  if err != nil {
    return nil, err
  }
  return v.(*types.HydratedChat), nil
}

func (p *Populator) User(ctx context.Context, userID uint) (*types.UserProjection, error) {
  key := UserKey(userID)
  if raw, ok, err := p.cache.Get(ctx, key); err != nil {
    p.log.Warn("Cache read failed, falling back to store", "key", key, "error", err)
  } else if ok {
    var cached types.UserProjection
    if err := json.Unmarshal([]byte(raw), &cached); err == nil {
      return &cached, nil
    }
    p.log.Warn("Dropping undecodable cache entry", "key", key)
    _ = p.cache.Del(ctx, key)
  }

  v, err, _ := p.group.Do(key, func() (interface{}, error) {
    found, err := p.users.GetByIDs(ctx, nil, []uint{userID})
    if err != nil {
      return nil, apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
    }
    if len(found) == 0 {
      return nil, apperr.NotFound(apperr.CodeUserNotFound, "user %d not found", userID)
    }
    projection := found[0].Projection()
    p.store(ctx, key, projection)
    return &projection, nil
  })
  if err != nil {
    return nil, err
  }
  return v.(*types.UserProjection), nil
}

// store writes through best-effort: a cache write failure is logged and
// never fails the read that triggered it.
func (p *Populator) store(ctx context.Context, key string, value any) {
  raw, err := json.Marshal(value)
  if err != nil {
    p.log.Warn("Failed to marshal cache entry", "key", key, "error", err)
    return
  }
  if err := p.cache.Set(ctx, key, string(raw), DefaultTTL); err != nil {
    p.log.Warn("Cache write failed", "key", key, "error", err)
  }
}
