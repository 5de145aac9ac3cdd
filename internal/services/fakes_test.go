package services

import (
  "context"
  "strings"
  "sync"
  "time"

  "go.mongodb.org/mongo-driver/bson/primitive"
  "gorm.io/gorm"

  "github.com/chirpchat/chirp-backend/internal/hub"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/types"
)

func testLogger() *logger.Logger {
  log, err := logger.New("development")
  if err != nil {
    panic(err)
  }
  return log
}

type fakeUserRepo struct {
  users map[uint]*types.User
  err   error
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
  byID := make(map[uint]*types.User, len(users))
  for _, u := range users {
    byID[u.ID] = u
  }
  return &fakeUserRepo{users: byID}
}

func (f *fakeUserRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
  if f.err != nil {
    return nil, f.err
  }
  for _, u := range users {
    if u.ID == 0 {
      u.ID = uint(len(f.users) + 1)
    }
    f.users[u.ID] = u
  }
  return users, nil
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]*types.User, error) {
  if f.err != nil {
    return nil, f.err
  }
  var out []*types.User
  for _, id := range userIDs {
    if u, ok := f.users[id]; ok {
      out = append(out, u)
    }
  }
  return out, nil
}

func (f *fakeUserRepo) GetByUsernames(ctx context.Context, tx *gorm.DB, usernames []string) ([]*types.User, error) {
  if f.err != nil {
    return nil, f.err
  }
  var out []*types.User
  for _, name := range usernames {
    for _, u := range f.users {
      if u.Username == name {
        out = append(out, u)
      }
    }
  }
  return out, nil
}

func (f *fakeUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
  if f.err != nil {
    return nil, f.err
  }
  var out []*types.User
  for _, email := range userEmails {
    for _, u := range f.users {
      if u.Email == email {
        out = append(out, u)
      }
    }
  }
  return out, nil
}

func (f *fakeUserRepo) SearchByUsername(ctx context.Context, tx *gorm.DB, prefix string, limit int) ([]*types.User, error) {
  if f.err != nil {
    return nil, f.err
  }
  var out []*types.User
  for _, u := range f.users {
    if strings.HasPrefix(u.Username, prefix) {
      out = append(out, u)
    }
  }
  return out, nil
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, tx *gorm.DB, userEmail string) (bool, error) {
  for _, u := range f.users {
    if u.Email == userEmail {
      return true, f.err
    }
  }
  return false, f.err
}

func (f *fakeUserRepo) UsernameExists(ctx context.Context, tx *gorm.DB, username string) (bool, error) {
  for _, u := range f.users {
    if u.Username == username {
      return true, f.err
    }
  }
  return false, f.err
}

type fakeChatRepo struct {
  chats         map[primitive.ObjectID]*types.Chat
  latestUpdates []primitive.ObjectID
  latestErr     error
  err           error
}

func newFakeChatRepo(chats ...*types.Chat) *fakeChatRepo {
  byID := make(map[primitive.ObjectID]*types.Chat, len(chats))
  for _, c := range chats {
    byID[c.ID] = c
  }
  return &fakeChatRepo{chats: byID}
}

func (f *fakeChatRepo) Create(ctx context.Context, chat *types.Chat) (*types.Chat, error) {
  if f.err != nil {
    return nil, f.err
  }
  if chat.ID.IsZero() {
    chat.ID = primitive.NewObjectID()
  }
  chat.CreatedAt = time.Now().UTC()
  chat.UpdatedAt = chat.CreatedAt
  f.chats[chat.ID] = chat
  return chat, nil
}

func (f *fakeChatRepo) GetByID(ctx context.Context, chatID primitive.ObjectID) (*types.Chat, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.chats[chatID], nil
}

func (f *fakeChatRepo) FindDirect(ctx context.Context, userA, userB uint) (*types.Chat, error) {
  if f.err != nil {
    return nil, f.err
  }
  for _, c := range f.chats {
    if !c.IsGroup && c.HasMember(userA) && c.HasMember(userB) {
      return c, nil
    }
  }
  return nil, nil
}

func (f *fakeChatRepo) ListByMember(ctx context.Context, userID uint) ([]*types.Chat, error) {
  if f.err != nil {
    return nil, f.err
  }
  var out []*types.Chat
  for _, c := range f.chats {
    if c.HasMember(userID) {
      out = append(out, c)
    }
  }
  return out, nil
}

func (f *fakeChatRepo) UpdateLatestMessage(ctx context.Context, chatID, messageID primitive.ObjectID) error {
  if f.latestErr != nil {
    return f.latestErr
  }
  if c, ok := f.chats[chatID]; ok {
    id := messageID
    c.LatestMessage = &id
    f.latestUpdates = append(f.latestUpdates, messageID)
  }
  return nil
}

func (f *fakeChatRepo) UpdateName(ctx context.Context, chatID primitive.ObjectID, name string) error {
  if c, ok := f.chats[chatID]; ok {
    c.ChatName = name
  }
  return f.err
}

func (f *fakeChatRepo) SetMembers(ctx context.Context, chatID primitive.ObjectID, users []uint) error {
  if c, ok := f.chats[chatID]; ok {
    c.Users = users
  }
  return f.err
}

type fakeMessageRepo struct {
  messages map[primitive.ObjectID]*types.Message
  created  []*types.Message
  err      error
}

func newFakeMessageRepo(messages ...*types.Message) *fakeMessageRepo {
  byID := make(map[primitive.ObjectID]*types.Message, len(messages))
  for _, m := range messages {
    byID[m.ID] = m
  }
  return &fakeMessageRepo{messages: byID}
}

func (f *fakeMessageRepo) Create(ctx context.Context, message *types.Message) (*types.Message, error) {
  if f.err != nil {
    return nil, f.err
  }
  message.ID = primitive.NewObjectID()
  message.CreatedAt = time.Now().UTC()
  message.UpdatedAt = message.CreatedAt
  f.messages[message.ID] = message
  f.created = append(f.created, message)
  return message, nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, messageID primitive.ObjectID) (*types.Message, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.messages[messageID], nil
}

func (f *fakeMessageRepo) ListByChat(ctx context.Context, chatID primitive.ObjectID) ([]*types.Message, error) {
  if f.err != nil {
    return nil, f.err
  }
  var out []*types.Message
  for _, m := range f.messages {
    if m.Chat == chatID {
      out = append(out, m)
    }
  }
  return out, nil
}

func (f *fakeMessageRepo) UpdateContent(ctx context.Context, messageID primitive.ObjectID, content string) error {
  if f.err != nil {
    return f.err
  }
  if m, ok := f.messages[messageID]; ok {
    m.Content = content
    m.UpdatedAt = time.Now().UTC()
  }
  return nil
}

func (f *fakeMessageRepo) Delete(ctx context.Context, messageID primitive.ObjectID) error {
  if f.err != nil {
    return f.err
  }
  delete(f.messages, messageID)
  return nil
}

type fakeUserTokenRepo struct {
  tokens map[uint]*types.UserToken
  err    error
}

func newFakeUserTokenRepo() *fakeUserTokenRepo {
  return &fakeUserTokenRepo{tokens: make(map[uint]*types.UserToken)}
}

func (f *fakeUserTokenRepo) Upsert(ctx context.Context, tx *gorm.DB, token *types.UserToken) error {
  if f.err != nil {
    return f.err
  }
  f.tokens[token.UserID] = token
  return nil
}

func (f *fakeUserTokenRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uint) (*types.UserToken, error) {
  if f.err != nil {
    return nil, f.err
  }
  return f.tokens[userID], nil
}

func (f *fakeUserTokenRepo) DeleteByUserID(ctx context.Context, tx *gorm.DB, userID uint) error {
  if f.err != nil {
    return f.err
  }
  delete(f.tokens, userID)
  return nil
}

type fakeRelationRepo struct {
  blocked bool
  err     error
}

func (f *fakeRelationRepo) IsBlockedByAny(ctx context.Context, tx *gorm.DB, targetID uint, blockerIDs []uint) (bool, error) {
  return f.blocked, f.err
}

func (f *fakeRelationRepo) SetRelation(ctx context.Context, tx *gorm.DB, userID, friendID uint, relType types.RelationType) error {
  return f.err
}

func (f *fakeRelationRepo) DeleteRelation(ctx context.Context, tx *gorm.DB, userID, friendID uint, relType types.RelationType) error {
  return f.err
}

type fakeCache struct {
  mu      sync.Mutex
  entries map[string]string
  deleted []string
  setErr  error
  getErr  error
}

func newFakeCache() *fakeCache {
  return &fakeCache{entries: make(map[string]string)}
}

func (f *fakeCache) Get(ctx context.Context, key string) (string, bool, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  if f.getErr != nil {
    return "", false, f.getErr
  }
  v, ok := f.entries[key]
  return v, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  if f.setErr != nil {
    return f.setErr
  }
  f.entries[key] = value
  return nil
}

func (f *fakeCache) Del(ctx context.Context, key string) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  delete(f.entries, key)
  f.deleted = append(f.deleted, key)
  return nil
}

type delivery struct {
  userID uint
  event  hub.Event
}

type fakeBroadcaster struct {
  mu         sync.Mutex
  deliveries []delivery
}

func (f *fakeBroadcaster) EmitToUser(userID uint, event hub.Event, payload any) {
  f.mu.Lock()
  defer f.mu.Unlock()
  f.deliveries = append(f.deliveries, delivery{userID: userID, event: event})
}

func (f *fakeBroadcaster) recipients() []uint {
  f.mu.Lock()
  defer f.mu.Unlock()
  out := make([]uint, 0, len(f.deliveries))
  for _, d := range f.deliveries {
    out = append(out, d.userID)
  }
  return out
}
