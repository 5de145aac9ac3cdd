package hub

import (
  "encoding/json"
  "sync"
  "time"

  "github.com/go-playground/validator/v10"
  "github.com/google/uuid"
  "github.com/gorilla/websocket"
)

const (
  // idleTimeout disconnects sockets that miss the ping/pong exchange.
  idleTimeout  = 60 * time.Second
  pingInterval = 54 * time.Second
  writeTimeout = 10 * time.Second
)

var validate = validator.New()

type setupPayload struct {
  UserID uint `json:"userId" validate:"required"`
}

type chatRoomPayload struct {
  ChatID string `json:"chatId" validate:"required,hexadecimal,len=24"`
}

// Client is one live socket connection. It starts Connected, becomes
// Identified after a setup event, and may join any number of chat rooms.
type Client struct {
  ID     uuid.UUID
  UserID uint
  Send   chan Frame

  conn      *websocket.Conn
  hub       *Hub
  done      chan struct{}
  closeOnce sync.Once

  roomsMu sync.Mutex
  rooms   map[string]bool
}

func (c *Client) trackRoom(room string) {
  c.roomsMu.Lock()
  defer c.roomsMu.Unlock()
  c.rooms[room] = true
}

func (c *Client) joinedRooms() map[string]bool {
  c.roomsMu.Lock()
  defer c.roomsMu.Unlock()
  out := make(map[string]bool, len(c.rooms))
  for r := range c.rooms {
    out[r] = true
  }
  return out
}

func (c *Client) clearRooms() {
  c.roomsMu.Lock()
  defer c.roomsMu.Unlock()
  c.rooms = make(map[string]bool)
}

// ServeWS attaches an upgraded connection to a new client and starts its
// read and write pumps.
func (h *Hub) ServeWS(conn *websocket.Conn) {
  client := h.NewClient()
  client.conn = conn
  go client.writePump()
  go client.readPump()
}

func (c *Client) close() {
  c.closeOnce.Do(func() {
    close(c.done)
    c.hub.RemoveClient(c)
    if c.conn != nil {
      _ = c.conn.Close()
    }
  })
}

func (c *Client) readPump() {
  defer c.close()

  _ = c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
  c.conn.SetPongHandler(func(string) error {
    return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
  })

  for {
    var frame Frame
    if err := c.conn.ReadJSON(&frame); err != nil {
      return
    }
    c.handleFrame(frame)
  }
}

func (c *Client) writePump() {
  ticker := time.NewTicker(pingInterval)
  defer func() {
    ticker.Stop()
    c.close()
  }()

  for {
    select {
    case <-c.done:
      return
    case frame := <-c.Send:
      _ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
      if err := c.conn.WriteJSON(frame); err != nil {
        return
      }
    case <-ticker.C:
      _ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
      if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
        return
      }
    }
  }
}

func (c *Client) handleFrame(frame Frame) {
  switch frame.Event {
  case "setup":
    var payload setupPayload
    if err := decodePayload(frame.Data, &payload); err != nil {
      return
    }
    c.UserID = payload.UserID
    c.hub.JoinRoom(c, UserRoom(payload.UserID))
    c.trySend(Frame{Event: EventConnected})
  case "join chat":
    var payload chatRoomPayload
    if err := decodePayload(frame.Data, &payload); err != nil {
      return
    }
    c.hub.JoinRoom(c, ChatRoom(payload.ChatID))
    c.trySend(Frame{Event: EventConnected})
  case EventTyping, EventStopTyping:
    var payload chatRoomPayload
    if err := decodePayload(frame.Data, &payload); err != nil {
      return
    }
    c.hub.EmitToRoom(ChatRoom(payload.ChatID), frame.Event, nil, c)
  }
}

func (c *Client) trySend(frame Frame) {
  select {
  case c.Send <- frame:
  default:
  }
}

func decodePayload(data any, out any) error {
  raw, err := json.Marshal(data)
  if err != nil {
    return err
  }
  if err := json.Unmarshal(raw, out); err != nil {
    return err
  }
  return validate.Struct(out)
}
