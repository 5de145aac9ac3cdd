package hydrate

import (
  "context"
  "fmt"

  "github.com/samber/lo"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/repos"
  "github.com/chirpchat/chirp-backend/internal/types"
)

// Hydrator replaces id references with full records. Unresolvable user ids
// get the placeholder projection; a dangling user reference never fails
// hydration. A directory lookup error, by contrast, is an upstream failure.
type Hydrator struct {
  users    repos.UserRepo
  chats    repos.ChatRepo
  messages repos.MessageRepo
  log      *logger.Logger
}

func New(users repos.UserRepo, chats repos.ChatRepo, messages repos.MessageRepo, baseLog *logger.Logger) *Hydrator {
  return &Hydrator{
    users:    users,
    chats:    chats,
    messages: messages,
    log:      baseLog.With("component", "Hydrator"),
  }
}

// Users resolves ids to projections. Every requested id is present in the
// result; ids the directory cannot resolve map to the placeholder.
func (h *Hydrator) Users(ctx context.Context, userIDs []uint) (map[uint]types.UserProjection, error) {
  ids := lo.Uniq(userIDs)
  found, err := h.users.GetByIDs(ctx, nil, ids)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("directory lookup failed: %w", err))
  }
  byID := lo.SliceToMap(found, func(u *types.User) (uint, types.UserProjection) {
    return u.ID, u.Projection()
  })
  out := make(map[uint]types.UserProjection, len(ids))
  for _, id := range ids {
    if p, ok := byID[id]; ok {
      out[id] = p
    } else {
      out[id] = types.PlaceholderUser(id)
    }
  }
  return out, nil
}

func (h *Hydrator) Chat(ctx context.Context, chat *types.Chat) (*types.HydratedChat, error) {
  projections, err := h.Users(ctx, chat.Users)
  if err != nil {
    return nil, err
  }

  hydrated := &types.HydratedChat{
    ID:         chat.ID,
    ChatName:   chat.ChatName,
    IsGroup:    chat.IsGroup,
    GroupAdmin: chat.GroupAdmin,
    CreatedAt:  chat.CreatedAt,
    UpdatedAt:  chat.UpdatedAt,
  }
  hydrated.Users = make([]types.UserProjection, 0, len(chat.Users))
  for _, id := range lo.Uniq(chat.Users) {
    hydrated.Users = append(hydrated.Users, projections[id])
  }

  if chat.LatestMessage != nil {
    latest, err := h.messages.GetByID(ctx, *chat.LatestMessage)
    if err != nil {
      return nil, apperr.Upstream(fmt.Errorf("latest message lookup failed: %w", err))
    }
    // A dangling latestMessage pointer (message expired or deleted) is
    // tolerated; the field is a display hint.
    hydrated.LatestMessage = latest
  }
  return hydrated, nil
}

func (h *Hydrator) Message(ctx context.Context, message *types.Message) (*types.HydratedMessage, error) {
  chat, err := h.chats.GetByID(ctx, message.Chat)
  if err != nil {
    return nil, apperr.Upstream(fmt.Errorf("chat lookup failed: %w", err))
  }
  if chat == nil {
    return nil, apperr.BadRequest(apperr.CodeChatNotFound, "chat %s not found", message.Chat.Hex())
  }
  hydratedChat, err := h.Chat(ctx, chat)
  if err != nil {
    return nil, err
  }

  senderIDs, err := h.Users(ctx, []uint{message.Sender})
  if err != nil {
    return nil, err
  }

  return &types.HydratedMessage{
    ID:        message.ID,
    Sender:    senderIDs[message.Sender],
    Content:   message.Content,
    Chat:      *hydratedChat,
    CreatedAt: message.CreatedAt,
    UpdatedAt: message.UpdatedAt,
  }, nil
}
