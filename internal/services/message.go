package services

import (
  "context"
  "encoding/json"
  "fmt"
  "strings"

  "go.mongodb.org/mongo-driver/bson/primitive"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/cache"
  "github.com/chirpchat/chirp-backend/internal/hub"
  "github.com/chirpchat/chirp-backend/internal/hydrate"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// MessageService is the fan-out engine: it turns a validated send or edit
// into a persisted, hydrated, cached and broadcast message.
type MessageService interface {
  Send(ctx context.Context, chatID, content string, senderID uint) (*types.HydratedMessage, error)
  Get(ctx context.Context, messageID string, requesterID uint) (*types.HydratedMessage, error)
  Edit(ctx context.Context, messageID, content string, requesterID uint) (*types.HydratedMessage, error)
  Delete(ctx context.Context, messageID string, requesterID uint) error
  ListByChat(ctx context.Context, chatID string, requesterID uint) ([]types.MessageView, error)
}

type messageService struct {
  log         *logger.Logger
  chats       repos.ChatRepo
  messages    repos.MessageRepo
  relations   repos.FriendRelationRepo
  hydrator    *hydrate.Hydrator
  cache       cache.Cache
  populator   *cache.Populator
  broadcaster Broadcaster
}

func NewMessageService(
  log *logger.Logger,
  chats repos.ChatRepo,
  messages repos.MessageRepo,
  relations repos.FriendRelationRepo,
  hydrator *hydrate.Hydrator,
  c cache.Cache,
  populator *cache.Populator,
  broadcaster Broadcaster,
) MessageService {
  serviceLog := log.With("service", "MessageService")
  return &messageService{
    log:         serviceLog,
    chats:       chats,
    messages:    messages,
    relations:   relations,
    hydrator:    hydrator,
    cache:       c,
    populator:   populator,
    broadcaster: broadcaster,
  }
}

func (ms *messageService) Send(ctx context.Context, chatID, content string, senderID uint) (*types.HydratedMessage, error) {
  content = strings.TrimSpace(content)
  if chatID == "" || content == "" {
    return nil, apperr.Validation("chatId and content are required")
  }
  chatOID, err := parseObjectID(chatID)
  if err != nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "invalid chat id %q", chatID)
  }

  chat, err := ms.chats.GetByID(ctx, chatOID)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("chat lookup failed: %w", err))
  }
  if chat == nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "chat %s not found", chatID)
  }
  if !chat.HasMember(senderID) {
    return nil, apperr.Forbidden(apperr.CodeNotMember, "sender is not a member of this chat")
  }

  // Block policy reads the social graph directly; the cache is never
  // consulted for permission decisions.
  blocked, err := ms.relations.IsBlockedByAny(ctx, nil, senderID, chat.Users)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("block check failed: %w", err))
  }
  if blocked {
    return nil, apperr.Forbidden(apperr.CodeSenderBlocked, "sender is blocked")
  }

  message, err := ms.messages.Create(ctx, &types.Message{
    Sender:  senderID,
    Content: content,
    Chat:    chatOID,
  })
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("failed to persist message: %w", err))
  }

  hydrated, err := ms.hydrator.Message(ctx, message)
  if err != nil {
    return nil, err
  }

  ms.cacheMessage(ctx, hydrated)

  // The message is already durable; a stale latestMessage pointer is a
  // display hint, not a delivery failure.
  if err := ms.chats.UpdateLatestMessage(ctx, chatOID, message.ID); err != nil {
    ms.log.Warn("Failed to update latest message pointer", "chat_id", chatID, "message_id", message.ID.Hex(), "error", err)
  }

  ms.deliver(hydrated, senderID, hub.EventMessageReceived)
  return hydrated, nil
}

// Get reads a single message through the message: cache key. Membership is
// checked against the hydrated chat snapshot.
func (ms *messageService) Get(ctx context.Context, messageID string, requesterID uint) (*types.HydratedMessage, error) {
  if messageID == "" {
    return nil, apperr.Validation("messageId is required")
  }
  messageOID, err := parseObjectID(messageID)
  if err != nil {
    return nil, apperr.BadRequest(apperr.CodeMsgNotFound, "invalid message id %q", messageID)
  }
  hydrated, err := ms.populator.Message(ctx, messageOID)
  if err != nil {
    return nil, err
  }
  member := false
  for _, u := range hydrated.Chat.Users {
    if u.ID == requesterID {
      member = true
      break
    }
  }
  if !member {
    return nil, apperr.Forbidden(apperr.CodeNotMember, "requester is not a member of this chat")
  }
  return hydrated, nil
}

func (ms *messageService) Edit(ctx context.Context, messageID, content string, requesterID uint) (*types.HydratedMessage, error) {
  content = strings.TrimSpace(content)
  if messageID == "" || content == "" {
    return nil, apperr.Validation("messageId and content are required")
  }
  messageOID, err := parseObjectID(messageID)
  if err != nil {
    return nil, apperr.BadRequest(apperr.CodeMsgNotFound, "invalid message id %q", messageID)
  }

  message, err := ms.messages.GetByID(ctx, messageOID)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("message lookup failed: %w", err))
  }
  if message == nil {
    return nil, apperr.BadRequest(apperr.CodeMsgNotFound, "message %s not found", messageID)
  }
  if message.Sender != requesterID {
    return nil, apperr.Forbidden(apperr.CodeNotOwner, "only the sender may edit a message")
  }

  if err := ms.messages.UpdateContent(ctx, messageOID, content); err != nil {
    return nil, apperr.Upstream(fmt.Errorf("failed to update message: %w", err))
  }
  message.Content = content

  hydrated, err := ms.hydrator.Message(ctx, message)
  if err != nil {
    return nil, err
  }

  ms.cacheMessage(ctx, hydrated)

  if latest := hydrated.Chat.LatestMessage; latest != nil && latest.ID == message.ID {
    if err := ms.chats.UpdateLatestMessage(ctx, message.Chat, message.ID); err != nil {
      ms.log.Warn("Failed to refresh latest message pointer", "chat_id", message.Chat.Hex(), "error", err)
    }
  }

  ms.deliver(hydrated, requesterID, hub.EventMessageEdited)
  return hydrated, nil
}

func (ms *messageService) Delete(ctx context.Context, messageID string, requesterID uint) error {
  if messageID == "" {
    return apperr.Validation("messageId is required")
  }
  messageOID, err := parseObjectID(messageID)
  if err != nil {
    return apperr.BadRequest(apperr.CodeMsgNotFound, "invalid message id %q", messageID)
  }

  message, err := ms.messages.GetByID(ctx, messageOID)
  if err != nil {
    return apperr.Upstream(fmt.Errorf("message lookup failed: %w", err))
  }
  if message == nil {
    return apperr.BadRequest(apperr.CodeMsgNotFound, "message %s not found", messageID)
  }
  if message.Sender != requesterID {
    return apperr.Forbidden(apperr.CodeNotOwner, "only the sender may delete a message")
  }

  if err := ms.messages.Delete(ctx, messageOID); err != nil {
    return apperr.Upstream(fmt.Errorf("failed to delete message: %w", err))
  }

  // Invalidate so a read-through hit cannot resurrect the deleted message.
  if err := ms.cache.Del(ctx, cache.MessageKey(messageOID)); err != nil {
    ms.log.Warn("Failed to invalidate cache entry", "message_id", messageID, "error", err)
  }
  return nil
}

func (ms *messageService) ListByChat(ctx context.Context, chatID string, requesterID uint) ([]types.MessageView, error) {
  if chatID == "" {
    return nil, apperr.Validation("chatId is required")
  }
  chatOID, err := parseObjectID(chatID)
  if err != nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "invalid chat id %q", chatID)
  }

  chat, err := ms.chats.GetByID(ctx, chatOID)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("chat lookup failed: %w", err))
  }
  if chat == nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "chat %s not found", chatID)
  }
  if !chat.HasMember(requesterID) {
    return nil, apperr.Forbidden(apperr.CodeNotMember, "requester is not a member of this chat")
  }

  messages, err := ms.messages.ListByChat(ctx, chatOID)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("message list failed: %w", err))
  }

  senderIDs := make([]uint, 0, len(messages))
  for _, m := range messages {
    senderIDs = append(senderIDs, m.Sender)
  }
  projections, err := ms.hydrator.Users(ctx, senderIDs)
  if err != nil {
    return nil, err
  }

  views := make([]types.MessageView, 0, len(messages))
  for _, m := range messages {
    views = append(views, types.MessageView{
      ID:        m.ID,
      Sender:    projections[m.Sender],
      Content:   m.Content,
      Chat:      m.Chat,
      CreatedAt: m.CreatedAt,
      UpdatedAt: m.UpdatedAt,
    })
  }
  return views, nil
}

// deliver fans the hydrated message out to every chat member's session room
// except the originator. The sender already holds the message from its own
// request response.
func (ms *messageService) deliver(hydrated *types.HydratedMessage, originatorID uint, event hub.Event) {
  for _, member := range hydrated.Chat.Users {
    if member.ID == originatorID {
      continue
    }
    ms.broadcaster.EmitToUser(member.ID, event, hydrated)
  }
}

// cacheMessage writes through best-effort. Persistence already succeeded;
// cache trouble must not fail the request.
func (ms *messageService) cacheMessage(ctx context.Context, hydrated *types.HydratedMessage) {
  raw, err := json.Marshal(hydrated)
  if err != nil {
    ms.log.Warn("Failed to marshal hydrated message", "message_id", hydrated.ID.Hex(), "error", err)
    return
  }
  if err := ms.cache.Set(ctx, cache.MessageKey(hydrated.ID), string(raw), cache.DefaultTTL); err != nil {
    ms.log.Warn("Cache write failed", "message_id", hydrated.ID.Hex(), "error", err)
  }
}

func parseObjectID(hex string) (primitive.ObjectID, error) {
  return primitive.ObjectIDFromHex(hex)
}
