package hub

import (
  "testing"

  "go.mongodb.org/mongo-driver/bson/primitive"

  "github.com/chirpchat/chirp-backend/internal/logger"
)

func newTestHub(t *testing.T) *Hub {
  t.Helper()
  log, err := logger.New("development")
  if err != nil {
    t.Fatalf("logger init: %v", err)
  }
  return NewHub(log)
}

func drain(c *Client) []Frame {
  var out []Frame
  for {
    select {
    case f := <-c.Send:
      out = append(out, f)
    default:
      return out
    }
  }
}

func TestJoinRoomIsIdempotent(t *testing.T) {
  h := newTestHub(t)
  c := h.NewClient()

  h.JoinRoom(c, UserRoom(7))
  h.JoinRoom(c, UserRoom(7))

  h.EmitToUser(7, EventMessageReceived, "payload")
  frames := drain(c)
  if len(frames) != 1 {
    t.Fatalf("expected exactly one frame after duplicate join, got %d", len(frames))
  }
  if frames[0].Event != EventMessageReceived {
    t.Fatalf("unexpected event %q", frames[0].Event)
  }
}

func TestEmitToAbsentUserIsSilentlyDropped(t *testing.T) {
  h := newTestHub(t)

  // No registered session for user 42; this must not block or panic.
  h.EmitToUser(42, EventMessageReceived, "payload")
}

func TestEmitToRoomExcludesOriginator(t *testing.T) {
  h := newTestHub(t)
  room := ChatRoom(primitive.NewObjectID().Hex())

  typist := h.NewClient()
  other := h.NewClient()
  h.JoinRoom(typist, room)
  h.JoinRoom(other, room)

  h.EmitToRoom(room, EventTyping, nil, typist)

  if frames := drain(typist); len(frames) != 0 {
    t.Fatalf("typist must not receive its own typing relay, got %d frames", len(frames))
  }
  frames := drain(other)
  if len(frames) != 1 || frames[0].Event != EventTyping {
    t.Fatalf("expected one typing frame for the other member, got %+v", frames)
  }
}

func TestRemoveClientDropsAllRooms(t *testing.T) {
  h := newTestHub(t)
  c := h.NewClient()
  room := ChatRoom(primitive.NewObjectID().Hex())

  h.JoinRoom(c, UserRoom(7))
  h.JoinRoom(c, room)
  h.RemoveClient(c)

  h.EmitToUser(7, EventMessageReceived, nil)
  h.EmitToRoom(room, EventTyping, nil, nil)
  if frames := drain(c); len(frames) != 0 {
    t.Fatalf("removed client must receive nothing, got %d frames", len(frames))
  }
}

func TestFullOutboundBufferDropsFrameWithoutBlocking(t *testing.T) {
  h := newTestHub(t)
  c := h.NewClient()
  h.JoinRoom(c, UserRoom(1))

  for i := 0; i < cap(c.Send)+5; i++ {
    h.EmitToUser(1, EventMessageReceived, i)
  }

  if got := len(drain(c)); got != cap(c.Send) {
    t.Fatalf("expected buffer-capacity frames, got %d", got)
  }
}

func TestHandleFrameSetupJoinsUserRoom(t *testing.T) {
  h := newTestHub(t)
  c := h.NewClient()

  c.handleFrame(Frame{Event: "setup", Data: map[string]any{"userId": 7}})

  if c.UserID != 7 {
    t.Fatalf("expected identified client, got userID=%d", c.UserID)
  }
  frames := drain(c)
  if len(frames) != 1 || frames[0].Event != EventConnected {
    t.Fatalf("expected connected ack, got %+v", frames)
  }

  h.EmitToUser(7, EventMessageReceived, nil)
  if frames := drain(c); len(frames) != 1 {
    t.Fatalf("expected delivery to session room, got %d frames", len(frames))
  }
}

func TestHandleFrameJoinChatRejectsBadChatID(t *testing.T) {
  h := newTestHub(t)
  c := h.NewClient()

  c.handleFrame(Frame{Event: "join chat", Data: map[string]any{"chatId": "not-hex"}})

  if frames := drain(c); len(frames) != 0 {
    t.Fatalf("invalid chat id must not ack, got %+v", frames)
  }
}

func TestHandleFrameTypingRelaysToRoom(t *testing.T) {
  h := newTestHub(t)
  chatID := primitive.NewObjectID().Hex()

  typist := h.NewClient()
  listener := h.NewClient()
  typist.handleFrame(Frame{Event: "join chat", Data: map[string]any{"chatId": chatID}})
  listener.handleFrame(Frame{Event: "join chat", Data: map[string]any{"chatId": chatID}})
  drain(typist)
  drain(listener)

  typist.handleFrame(Frame{Event: EventTyping, Data: map[string]any{"chatId": chatID}})

  if frames := drain(typist); len(frames) != 0 {
    t.Fatalf("typist must not hear itself, got %+v", frames)
  }
  frames := drain(listener)
  if len(frames) != 1 || frames[0].Event != EventTyping {
    t.Fatalf("expected typing relay, got %+v", frames)
  }
}
