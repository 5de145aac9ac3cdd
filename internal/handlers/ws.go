package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/gorilla/websocket"

  "github.com/chirpchat/chirp-backend/internal/hub"
  "github.com/chirpchat/chirp-backend/internal/logger"
)

var upgrader = websocket.Upgrader{
  ReadBufferSize:  1024,
  WriteBufferSize: 1024,
  // Origin is enforced by the CORS layer on the REST surface; the socket
  // endpoint accepts any origin so native clients can connect.
  CheckOrigin: func(r *http.Request) bool { return true },
}

type WSHandler struct {
  log *logger.Logger
  hub *hub.Hub
}

func NewWSHandler(log *logger.Logger, h *hub.Hub) *WSHandler {
  return &WSHandler{log: log.With("handler", "WSHandler"), hub: h}
}

// Serve upgrades the request and hands the connection to the hub, which
// owns it for the rest of its lifetime.
func (wh *WSHandler) Serve(c *gin.Context) {
  conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
  if err != nil {
    wh.log.Warn("websocket upgrade failed", "error", err)
    return
  }
  wh.hub.ServeWS(conn)
}
