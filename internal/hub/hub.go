package hub

import (
  "strconv"
  "sync"

  "github.com/google/uuid"

  "github.com/chirpchat/chirp-backend/internal/logger"
)

type Event string

const (
  EventConnected       Event = "connected"
  EventMessageReceived Event = "messageReceived"
  EventMessageEdited   Event = "messageEdited"
  EventTyping          Event = "typing"
  EventStopTyping      Event = "stopTyping"
)

// Frame is the wire shape of every socket event, both directions.
type Frame struct {
  Event Event `json:"event"`
  Data  any   `json:"data,omitempty"`
}

// Rooms are named by the raw identity they scope: the decimal user id for a
// user's session room, the chat id hex for a chat room. The two id spaces
// cannot collide.
func UserRoom(userID uint) string {
  return strconv.FormatUint(uint64(userID), 10)
}

func ChatRoom(chatID string) string {
  return chatID
}

// Hub maps live connections to rooms and provides room-scoped broadcast.
// Delivery is at-most-once: no session means the event is silently dropped,
// a full outbound buffer means the frame is dropped with a warning.
type Hub struct {
  mu    sync.RWMutex
  log   *logger.Logger
  rooms map[string]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
  return &Hub{
    log:   log.With("component", "Hub"),
    rooms: make(map[string]map[*Client]bool),
  }
}

// NewClient creates an unattached client. ServeWS attaches a websocket
// transport; tests read Send directly.
func (h *Hub) NewClient() *Client {
  return &Client{
    ID:    uuid.New(),
    Send:  make(chan Frame, 16),
    done:  make(chan struct{}),
    rooms: make(map[string]bool),
    hub:   h,
  }
}

// JoinRoom is idempotent: joining a room twice leaves exactly one membership.
func (h *Hub) JoinRoom(client *Client, room string) {
  if room == "" {
    return
  }
  h.mu.Lock()
  defer h.mu.Unlock()

  clients, exists := h.rooms[room]
  if !exists {
    clients = make(map[*Client]bool)
    h.rooms[room] = clients
  }
  clients[client] = true
  client.trackRoom(room)

  h.log.Debug("Client joined room", "clientID", client.ID, "room", room)
}

// RemoveClient drops the client from every room it joined. Membership is
// connection-scoped; there is no explicit leave-room event.
func (h *Hub) RemoveClient(client *Client) {
  h.mu.Lock()
  defer h.mu.Unlock()

  for room := range client.joinedRooms() {
    if members, ok := h.rooms[room]; ok {
      delete(members, client)
      if len(members) == 0 {
        delete(h.rooms, room)
      }
    }
  }
  client.clearRooms()
  h.log.Debug("Client removed from all rooms", "clientID", client.ID)
}

// EmitToUser delivers to every connection in the user's session room. No
// session, no delivery — this is normal, not an error.
func (h *Hub) EmitToUser(userID uint, event Event, payload any) {
  h.emit(UserRoom(userID), event, payload, nil)
}

// EmitToRoom broadcasts to a chat room, optionally excluding the
// originating connection (typing relays never echo to the typist).
func (h *Hub) EmitToRoom(room string, event Event, payload any, exclude *Client) {
  h.emit(room, event, payload, exclude)
}

func (h *Hub) emit(room string, event Event, payload any, exclude *Client) {
  h.mu.RLock()
  defer h.mu.RUnlock()

  members, ok := h.rooms[room]
  if !ok {
    return
  }
  frame := Frame{Event: event, Data: payload}
  for c := range members {
    if c == exclude {
      continue
    }
    select {
    case c.Send <- frame:
    default:
      h.log.Warn("Dropping frame; outbound buffer full", "clientID", c.ID, "room", room, "event", event)
    }
  }
}
