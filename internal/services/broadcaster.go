package services

import (
  "github.com/chirpchat/chirp-backend/internal/hub"
)

// Broadcaster is the delivery side of the fan-out engine. *hub.Hub satisfies
// it; tests substitute a recorder. Delivery is fire-and-forget.
type Broadcaster interface {
  EmitToUser(userID uint, event hub.Event, payload any)
}
