package hydrate

import (
  "context"
  "errors"
  "testing"

  "go.mongodb.org/mongo-driver/bson/primitive"
  "gorm.io/gorm"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// Stubs embed the interface so only the methods a test exercises need
// implementations; anything else panics loudly.
type stubUserRepo struct {
  repos.UserRepo
  users map[uint]*types.User
  err   error
}

func (s *stubUserRepo) GetByIDs(ctx context.Context, tx *gorm.DB, userIDs []uint) ([]*types.User, error) {
  if s.err != nil {
    return nil, s.err
  }
  var out []*types.User
  for _, id := range userIDs {
    if u, ok := s.users[id]; ok {
      out = append(out, u)
    }
  }
  return out, nil
}

type stubChatRepo struct {
  repos.ChatRepo
  chats map[primitive.ObjectID]*types.Chat
}

func (s *stubChatRepo) GetByID(ctx context.Context, chatID primitive.ObjectID) (*types.Chat, error) {
  return s.chats[chatID], nil
}

type stubMessageRepo struct {
  repos.MessageRepo
  messages map[primitive.ObjectID]*types.Message
}

func (s *stubMessageRepo) GetByID(ctx context.Context, messageID primitive.ObjectID) (*types.Message, error) {
  return s.messages[messageID], nil
}

func newTestHydrator(t *testing.T, users *stubUserRepo, chats *stubChatRepo, messages *stubMessageRepo) *Hydrator {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger init: %v", err)
  }
  if users == nil {
    users = &stubUserRepo{users: map[uint]*types.User{}}
  }
  if chats == nil {
    chats = &stubChatRepo{chats: map[primitive.ObjectID]*types.Chat{}}
  }
  if messages == nil {
    messages = &stubMessageRepo{messages: map[primitive.ObjectID]*types.Message{}}
  }
  return New(users, chats, messages, log)
}

func TestUsersSubstitutesPlaceholderForUnknownIDs(t *testing.T) {
  users := &stubUserRepo{users: map[uint]*types.User{
    1: {ID: 1, Username: "alice", Email: "alice@test.dev", Name: "Alice"},
  }}
  h := newTestHydrator(t, users, nil, nil)

  out, err := h.Users(context.Background(), []uint{1, 99})
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if out[1].Username != "alice" {
    t.Fatalf("expected resolved projection, got %+v", out[1])
  }
  ghost := out[99]
  if ghost.ID != 99 || ghost.Username != "chirpuser" {
    t.Fatalf("expected placeholder for unknown id, got %+v", ghost)
  }
}

func TestUsersDeduplicatesIDs(t *testing.T) {
  users := &stubUserRepo{users: map[uint]*types.User{
    1: {ID: 1, Username: "alice"},
  }}
  h := newTestHydrator(t, users, nil, nil)

  out, err := h.Users(context.Background(), []uint{1, 1, 1})
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if len(out) != 1 {
    t.Fatalf("expected one entry, got %d", len(out))
  }
}

func TestUsersDirectoryFailureIsUpstream(t *testing.T) {
  users := &stubUserRepo{err: errors.New("connection refused")}
  h := newTestHydrator(t, users, nil, nil)

  _, err := h.Users(context.Background(), []uint{1})
  if !apperr.Is(err, apperr.CodeUpstream) {
    t.Fatalf("expected upstream error, got %v", err)
  }
}

func TestChatToleratesDanglingLatestMessage(t *testing.T) {
  users := &stubUserRepo{users: map[uint]*types.User{
    1: {ID: 1, Username: "alice"},
    2: {ID: 2, Username: "bob"},
  }}
  gone := primitive.NewObjectID()
  chat := &types.Chat{
    ID:            primitive.NewObjectID(),
    Users:         []uint{1, 2},
    LatestMessage: &gone,
  }
  h := newTestHydrator(t, users, nil, &stubMessageRepo{messages: map[primitive.ObjectID]*types.Message{}})

  hydrated, err := h.Chat(context.Background(), chat)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if hydrated.LatestMessage != nil {
    t.Fatalf("expected dangling pointer to hydrate as nil")
  }
  if len(hydrated.Users) != 2 {
    t.Fatalf("expected 2 projections, got %d", len(hydrated.Users))
  }
}

func TestChatDeduplicatesMembers(t *testing.T) {
  users := &stubUserRepo{users: map[uint]*types.User{1: {ID: 1, Username: "alice"}}}
  chat := &types.Chat{ID: primitive.NewObjectID(), Users: []uint{1, 1}}
  h := newTestHydrator(t, users, nil, nil)

  hydrated, err := h.Chat(context.Background(), chat)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if len(hydrated.Users) != 1 {
    t.Fatalf("expected deduped member list, got %d entries", len(hydrated.Users))
  }
}

func TestMessageFailsWhenChatIsGone(t *testing.T) {
  h := newTestHydrator(t, &stubUserRepo{users: map[uint]*types.User{}}, &stubChatRepo{chats: map[primitive.ObjectID]*types.Chat{}}, nil)
  msg := &types.Message{ID: primitive.NewObjectID(), Sender: 1, Chat: primitive.NewObjectID()}

  _, err := h.Message(context.Background(), msg)
  if !apperr.Is(err, apperr.CodeChatNotFound) {
    t.Fatalf("expected chat_not_found, got %v", err)
  }
}

func TestMessageHydratesSenderAndChat(t *testing.T) {
  users := &stubUserRepo{users: map[uint]*types.User{
    1: {ID: 1, Username: "alice"},
    2: {ID: 2, Username: "bob"},
  }}
  chat := &types.Chat{ID: primitive.NewObjectID(), Users: []uint{1, 2}}
  chats := &stubChatRepo{chats: map[primitive.ObjectID]*types.Chat{chat.ID: chat}}
  h := newTestHydrator(t, users, chats, nil)

  msg := &types.Message{ID: primitive.NewObjectID(), Sender: 2, Content: "hi", Chat: chat.ID}
  hydrated, err := h.Message(context.Background(), msg)
  if err != nil {
    t.Fatalf("unexpected error: %v", err)
  }
  if hydrated.Sender.Username != "bob" {
    t.Fatalf("expected sender projection, got %+v", hydrated.Sender)
  }
  if hydrated.Chat.ID != chat.ID || len(hydrated.Chat.Users) != 2 {
    t.Fatalf("expected embedded hydrated chat, got %+v", hydrated.Chat)
  }
}
