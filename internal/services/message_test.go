package services

import (
  "context"
  "errors"
  "testing"

  "github.com/stretchr/testify/require"
  "go.mongodb.org/mongo-driver/bson/primitive"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/cache"
  "github.com/chirpchat/chirp-backend/internal/hub"
  "github.com/chirpchat/chirp-backend/internal/hydrate"
  "github.com/chirpchat/chirp-backend/internal/types"
)

type messageFixture struct {
  users       *fakeUserRepo
  chats       *fakeChatRepo
  messages    *fakeMessageRepo
  relations   *fakeRelationRepo
  cache       *fakeCache
  broadcaster *fakeBroadcaster
  service     MessageService
  chat        *types.Chat
}

func newMessageFixture(t *testing.T, memberIDs ...uint) *messageFixture {
  t.Helper()
  log := testLogger()

  users := make([]*types.User, 0, len(memberIDs))
  for _, id := range memberIDs {
    users = append(users, &types.User{ID: id, Username: usernameFor(id), Email: usernameFor(id) + "@test.dev", Name: usernameFor(id)})
  }
  chat := &types.Chat{
    ID:      primitive.NewObjectID(),
    IsGroup: len(memberIDs) > 2,
    Users:   memberIDs,
  }

  f := &messageFixture{
    users:       newFakeUserRepo(users...),
    chats:       newFakeChatRepo(chat),
    messages:    newFakeMessageRepo(),
    relations:   &fakeRelationRepo{},
    cache:       newFakeCache(),
    broadcaster: &fakeBroadcaster{},
    chat:        chat,
  }
  hydrator := hydrate.New(f.users, f.chats, f.messages, log)
  populator := cache.NewPopulator(f.cache, f.messages, f.chats, f.users, hydrator, log)
  f.service = NewMessageService(log, f.chats, f.messages, f.relations, hydrator, f.cache, populator, f.broadcaster)
  return f
}

func usernameFor(id uint) string {
  return string(rune('a'+id-1)) + "user"
}

func TestMessageSendDeliversToEveryMemberExceptSender(t *testing.T) {
  f := newMessageFixture(t, 1, 2, 3)

  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)
  require.Equal(t, "hello", msg.Content)
  require.Equal(t, uint(1), msg.Sender.ID)

  recipients := f.broadcaster.recipients()
  require.ElementsMatch(t, []uint{2, 3}, recipients)
  for _, d := range f.broadcaster.deliveries {
    require.Equal(t, hub.EventMessageReceived, d.event)
  }
}

func TestMessageSendBlockedSenderPersistsNothing(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  f.relations.blocked = true

  _, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.Error(t, err)
  require.True(t, apperr.Is(err, apperr.CodeSenderBlocked))
  require.Empty(t, f.messages.created)
  require.Empty(t, f.broadcaster.deliveries)
  require.Empty(t, f.cache.entries)
  require.Nil(t, f.chat.LatestMessage)
}

func TestMessageSendRejectsNonMember(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  _, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 9)
  require.True(t, apperr.Is(err, apperr.CodeNotMember))
  require.Empty(t, f.messages.created)
}

func TestMessageSendUpdatesLatestMessagePointer(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "first", 1)
  require.NoError(t, err)
  require.NotNil(t, f.chat.LatestMessage)
  require.Equal(t, msg.ID, *f.chat.LatestMessage)
}

func TestMessageSendSurvivesLatestPointerFailure(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  f.chats.latestErr = errors.New("write conflict")

  _, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)
  require.ElementsMatch(t, []uint{2}, f.broadcaster.recipients())
}

func TestMessageSendSurvivesCacheWriteFailure(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  f.cache.setErr = errors.New("redis down")

  _, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)
  require.Len(t, f.messages.created, 1)
}

func TestMessageSendCachesHydratedEntry(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)
  raw, ok := f.cache.entries[cache.MessageKey(msg.ID)]
  require.True(t, ok)
  require.Contains(t, raw, "hello")
}

func TestMessageEditRequiresOwnership(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)

  _, err = f.service.Edit(context.Background(), msg.ID.Hex(), "hacked", 2)
  require.True(t, apperr.Is(err, apperr.CodeNotOwner))
}

func TestMessageEditRefreshesCacheAndBroadcasts(t *testing.T) {
  f := newMessageFixture(t, 1, 2, 3)
  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)
  f.broadcaster.deliveries = nil

  edited, err := f.service.Edit(context.Background(), msg.ID.Hex(), "hello again", 1)
  require.NoError(t, err)
  require.Equal(t, "hello again", edited.Content)

  raw, ok := f.cache.entries[cache.MessageKey(msg.ID)]
  require.True(t, ok)
  require.Contains(t, raw, "hello again")

  require.ElementsMatch(t, []uint{2, 3}, f.broadcaster.recipients())
  for _, d := range f.broadcaster.deliveries {
    require.Equal(t, hub.EventMessageEdited, d.event)
  }
}

func TestMessageDeleteInvalidatesCache(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)

  require.NoError(t, f.service.Delete(context.Background(), msg.ID.Hex(), 1))
  require.Contains(t, f.cache.deleted, cache.MessageKey(msg.ID))
  _, ok := f.cache.entries[cache.MessageKey(msg.ID)]
  require.False(t, ok)
}

func TestMessageDeleteRequiresOwnership(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)

  err = f.service.Delete(context.Background(), msg.ID.Hex(), 2)
  require.True(t, apperr.Is(err, apperr.CodeNotOwner))
}

func TestMessageListRequiresMembership(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  _, err := f.service.ListByChat(context.Background(), f.chat.ID.Hex(), 9)
  require.True(t, apperr.Is(err, apperr.CodeNotMember))
}

func TestMessageListHydratesUnknownSenderAsPlaceholder(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  // Member 2's account is gone from the directory but their messages remain.
  f.chat.Users = []uint{1, 2}
  delete(f.users.users, 2)
  _, err := f.messages.Create(context.Background(), &types.Message{Sender: 2, Content: "ghost", Chat: f.chat.ID})
  require.NoError(t, err)

  views, err := f.service.ListByChat(context.Background(), f.chat.ID.Hex(), 1)
  require.NoError(t, err)
  require.Len(t, views, 1)
  require.Equal(t, "chirpuser", views[0].Sender.Username)
}

func TestMessageGetReadsThroughCache(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)

  // The send already populated the cache; mutating the store behind it must
  // not change what Get returns within the TTL.
  require.NoError(t, f.messages.UpdateContent(context.Background(), msg.ID, "mutated"))
  got, err := f.service.Get(context.Background(), msg.ID.Hex(), 2)
  require.NoError(t, err)
  require.Equal(t, "hello", got.Content)
}

func TestMessageGetRejectsNonMember(t *testing.T) {
  f := newMessageFixture(t, 1, 2)
  msg, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hello", 1)
  require.NoError(t, err)

  _, err = f.service.Get(context.Background(), msg.ID.Hex(), 9)
  require.True(t, apperr.Is(err, apperr.CodeNotMember))
}

// The latestMessage pointer is last-write-wins: with sequential sends it
// tracks the newest message, but concurrent sends may leave it pointing at
// whichever write landed last, not the newest by wall clock.
func TestLatestMessagePointerIsLastWriteWins(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  _, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "first", 1)
  require.NoError(t, err)
  second, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "second", 2)
  require.NoError(t, err)

  require.Equal(t, second.ID, *f.chat.LatestMessage)
  require.Len(t, f.chats.latestUpdates, 2)
}

func TestSendDeliverListEndToEnd(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  sent, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "hi", 1)
  require.NoError(t, err)

  require.Equal(t, []uint{2}, f.broadcaster.recipients())
  require.Equal(t, hub.EventMessageReceived, f.broadcaster.deliveries[0].event)

  views, err := f.service.ListByChat(context.Background(), f.chat.ID.Hex(), 2)
  require.NoError(t, err)
  require.Len(t, views, 1)
  require.Equal(t, sent.ID, views[0].ID)
  require.Equal(t, "hi", views[0].Content)
  require.Equal(t, uint(1), views[0].Sender.ID)
  require.Equal(t, usernameFor(1), views[0].Sender.Username)
}

func TestMessageSendRejectsUnknownChat(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  _, err := f.service.Send(context.Background(), primitive.NewObjectID().Hex(), "hello", 1)
  require.True(t, apperr.Is(err, apperr.CodeChatNotFound))
}

func TestMessageSendRejectsEmptyContent(t *testing.T) {
  f := newMessageFixture(t, 1, 2)

  _, err := f.service.Send(context.Background(), f.chat.ID.Hex(), "   ", 1)
  require.True(t, apperr.Is(err, apperr.CodeValidation))
}
