package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"

  "github.com/samber/lo"
  "go.mongodb.org/mongo-driver/bson/primitive"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/cache"
  "github.com/chirpchat/chirp-backend/internal/hydrate"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// ChatService owns chat lifecycle: direct chat access, group creation and
// membership changes. Chats are never hard-deleted; membership changes flow
// through the group endpoints only.
type ChatService interface {
  Access(ctx context.Context, requesterID uint, username string) (chat *types.HydratedChat, created bool, err error)
  Get(ctx context.Context, requesterID uint, chatID string) (*types.HydratedChat, error)
  Fetch(ctx context.Context, userID uint) ([]*types.HydratedChat, error)
  CreateGroup(ctx context.Context, adminID uint, name string, usernames []string) (*types.HydratedChat, error)
  UpdateGroup(ctx context.Context, requesterID uint, chatID, newName string, usernamesToAdd []string) (*types.HydratedChat, error)
  RemoveFromGroup(ctx context.Context, requesterID uint, chatID string, userID uint) (*types.HydratedChat, error)
  Leave(ctx context.Context, userID uint, chatID string) (*types.HydratedChat, error)
}

type chatService struct {
  log       *logger.Logger
  users     repos.UserRepo
  chats     repos.ChatRepo
  hydrator  *hydrate.Hydrator
  cache     cache.Cache
  populator *cache.Populator
}

func NewChatService(log *logger.Logger, users repos.UserRepo, chats repos.ChatRepo, hydrator *hydrate.Hydrator, c cache.Cache, populator *cache.Populator) ChatService {
  serviceLog := log.With("service", "ChatService")
  return &chatService{log: serviceLog, users: users, chats: chats, hydrator: hydrator, cache: c, populator: populator}
}

func (cs *chatService) Access(ctx context.Context, requesterID uint, username string) (*types.HydratedChat, bool, error) {
  username = strings.TrimSpace(username)
  if username == "" {
    return nil, false, apperr.Validation("username is required")
  }

  found, err := cs.users.GetByUsernames(ctx, nil, []string{username})
  if err != nil {
    return nil, false, apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
  }
  if len(found) == 0 {
    return nil, false, apperr.NotFound(apperr.CodeUserNotFound, "user %q not found", username)
  }
  other := found[0]
  if other.ID == requesterID {
    return nil, false, apperr.Validation("cannot open a direct chat with yourself")
  }

  existing, err := cs.chats.FindDirect(ctx, requesterID, other.ID)
  if err != nil {
    return nil, false, apperr.Upstream(fmt.Errorf("chat lookup failed: %w", err))
  }
  if existing != nil {
    hydrated, err := cs.hydrator.Chat(ctx, existing)
    if err != nil {
      return nil, false, err
    }
    return hydrated, false, nil
  }

  // A direct chat has exactly two distinct members.
  chat, err := cs.chats.Create(ctx, &types.Chat{
    ChatName: "sender",
    IsGroup:  false,
    Users:    []uint{requesterID, other.ID},
  })
  if err != nil {
    return nil, false, apperr.Upstream(fmt.Errorf("failed to create chat: %w", err))
  }

  hydrated, err := cs.hydrator.Chat(ctx, chat)
  if err != nil {
    return nil, false, err
  }
  cs.cacheChat(ctx, hydrated)
  return hydrated, true, nil
}

// Get reads a single chat through the chat: cache key. Membership is
// checked against the returned entity, so a cached chat never grants
// access to a non-member.
func (cs *chatService) Get(ctx context.Context, requesterID uint, chatID string) (*types.HydratedChat, error) {
  if chatID == "" {
    return nil, apperr.Validation("chatId is required")
  }
  oid, err := primitive.ObjectIDFromHex(chatID)
  if err != nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "invalid chat id %q", chatID)
  }
  hydrated, err := cs.populator.Chat(ctx, oid)
  if err != nil {
    return nil, err
  }
  if !lo.ContainsBy(hydrated.Users, func(u types.UserProjection) bool { return u.ID == requesterID }) {
    return nil, apperr.Forbidden(apperr.CodeNotMember, "requester is not a member of this chat")
  }
  return hydrated, nil
}

func (cs *chatService) Fetch(ctx context.Context, userID uint) ([]*types.HydratedChat, error) {
  chats, err := cs.chats.ListByMember(ctx, userID)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("chat list failed: %w", err))
  }
  out := make([]*types.HydratedChat, 0, len(chats))
  for _, chat := range chats {
    hydrated, err := cs.hydrator.Chat(ctx, chat)
    if err != nil {
      return nil, err
    }
    out = append(out, hydrated)
  }
  return out, nil
}

func (cs *chatService) CreateGroup(ctx context.Context, adminID uint, name string, usernames []string) (*types.HydratedChat, error) {
  name = strings.TrimSpace(name)
  if name == "" || len(usernames) == 0 {
    return nil, apperr.Validation("participants or name of group is missing")
  }
  usernames = lo.Uniq(usernames)
  if len(usernames) < 2 {
    return nil, apperr.Validation("more than 2 users are required to start a group chat")
  }

  users, err := cs.users.GetByUsernames(ctx, nil, usernames)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
  }
  if len(users) != len(usernames) {
    return nil, apperr.NotFound(apperr.CodeUserNotFound, "some users not found")
  }

  memberIDs := lo.Map(users, func(u *types.User, _ int) uint { return u.ID })
  memberIDs = lo.Uniq(append(memberIDs, adminID))

  chat, err := cs.chats.Create(ctx, &types.Chat{
    ChatName:   name,
    IsGroup:    true,
    Users:      memberIDs,
    GroupAdmin: adminID,
  })
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("failed to create group chat: %w", err))
  }

  hydrated, err := cs.hydrator.Chat(ctx, chat)
  if err != nil {
    return nil, err
  }
  cs.cacheChat(ctx, hydrated)
  return hydrated, nil
}

func (cs *chatService) UpdateGroup(ctx context.Context, requesterID uint, chatID, newName string, usernamesToAdd []string) (*types.HydratedChat, error) {
  chat, err := cs.loadGroup(ctx, chatID)
  if err != nil {
    return nil, err
  }
  if chat.GroupAdmin != requesterID {
    return nil, apperr.Forbidden(apperr.CodeNotAdmin, "only the group admin may update the group")
  }

  newName = strings.TrimSpace(newName)
  if newName != "" {
    if err := cs.chats.UpdateName(ctx, chat.ID, newName); err != nil {
      return nil, apperr.Upstream(fmt.Errorf("failed to rename group: %w", err))
    }
  }

  if len(usernamesToAdd) > 0 {
    users, err := cs.users.GetByUsernames(ctx, nil, lo.Uniq(usernamesToAdd))
    if err != nil {
      return nil, apperr.Upstream(fmt.Errorf("user lookup failed: %w", err))
    }
    if len(users) != len(lo.Uniq(usernamesToAdd)) {
      return nil, apperr.NotFound(apperr.CodeUserNotFound, "some users not found")
    }
    ids := lo.Map(users, func(u *types.User, _ int) uint { return u.ID })
    members := lo.Uniq(append(chat.Users, ids...))
    if err := cs.chats.SetMembers(ctx, chat.ID, members); err != nil {
      return nil, apperr.Upstream(fmt.Errorf("failed to add members: %w", err))
    }
  }

  return cs.reload(ctx, chat.ID)
}

func (cs *chatService) RemoveFromGroup(ctx context.Context, requesterID uint, chatID string, userID uint) (*types.HydratedChat, error) {
  chat, err := cs.loadGroup(ctx, chatID)
  if err != nil {
    return nil, err
  }
  if chat.GroupAdmin != requesterID {
    return nil, apperr.Forbidden(apperr.CodeNotAdmin, "only the group admin may remove members")
  }
  if userID == chat.GroupAdmin {
    return nil, apperr.Validation("cannot remove the group admin")
  }
  if !chat.HasMember(userID) {
    return nil, apperr.BadRequest(apperr.CodeNotMember, "user %d is not a member of this chat", userID)
  }

  members := lo.Filter(chat.Users, func(id uint, _ int) bool { return id != userID })
  if err := cs.chats.SetMembers(ctx, chat.ID, members); err != nil {
    return nil, apperr.Upstream(fmt.Errorf("failed to remove member: %w", err))
  }
  return cs.reload(ctx, chat.ID)
}

func (cs *chatService) Leave(ctx context.Context, userID uint, chatID string) (*types.HydratedChat, error) {
  chat, err := cs.loadGroup(ctx, chatID)
  if err != nil {
    return nil, err
  }
  if !chat.HasMember(userID) {
    return nil, apperr.BadRequest(apperr.CodeNotMember, "user %d is not a member of this chat", userID)
  }
  // A group always keeps its admin in the member list.
  if userID == chat.GroupAdmin {
    return nil, apperr.Validation("the group admin cannot leave the group")
  }

  members := lo.Filter(chat.Users, func(id uint, _ int) bool { return id != userID })
  if err := cs.chats.SetMembers(ctx, chat.ID, members); err != nil {
    return nil, apperr.Upstream(fmt.Errorf("failed to leave chat: %w", err))
  }
  return cs.reload(ctx, chat.ID)
}

func (cs *chatService) loadGroup(ctx context.Context, chatID string) (*types.Chat, error) {
  if chatID == "" {
    return nil, apperr.Validation("chatId is required")
  }
  oid, err := primitive.ObjectIDFromHex(chatID)
  if err != nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "invalid chat id %q", chatID)
  }
  chat, err := cs.chats.GetByID(ctx, oid)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("chat lookup failed: %w", err))
  }
  if chat == nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "chat %s not found", chatID)
  }
  if !chat.IsGroup {
    return nil, apperr.Validation("chat %s is not a group chat", chatID)
  }
  return chat, nil
}

func (cs *chatService) reload(ctx context.Context, chatID primitive.ObjectID) (*types.HydratedChat, error) {
  chat, err := cs.chats.GetByID(ctx, chatID)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("chat reload failed: %w", err))
  }
  if chat == nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "chat %s not found", chatID.Hex())
  }
  hydrated, err := cs.hydrator.Chat(ctx, chat)
  if err != nil {
    return nil, err
  }
  cs.cacheChat(ctx, hydrated)
  return hydrated, nil
}

// cacheChat writes through best-effort after chat mutations so repeated
// reads within the TTL see the updated membership.
func (cs *chatService) cacheChat(ctx context.Context, hydrated *types.HydratedChat) {
  raw, err := json.Marshal(hydrated)
  if err != nil {
    cs.log.Warn("Failed to marshal hydrated chat", "chat_id", hydrated.ID.Hex(), "error", err)
    return
  }
  if err := cs.cache.Set(ctx, cache.ChatKey(hydrated.ID), string(raw), cache.DefaultTTL); err != nil {
    cs.log.Warn("Cache write failed", "chat_id", hydrated.ID.Hex(), "error", err)
  }
}
