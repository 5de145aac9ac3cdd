package middleware

import (
  "strings"

  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/handlers"
  "github.com/chirpchat/chirp-backend/internal/logger"
  "github.com/chirpchat/chirp-backend/internal/requestdata"
  "github.com/chirpchat/chirp-backend/internal/services"
)

type AuthMiddleware struct {
  log         *logger.Logger
  authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
  return &AuthMiddleware{
    log:         log.With("middleware", "AuthMiddleware"),
    authService: authService,
  }
}

// RequireAuth validates the access token and stashes the caller's identity
// in the request context. The token comes from the Authorization header, or
// from the token query parameter for websocket clients that cannot set
// headers during the upgrade handshake.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
  return func(c *gin.Context) {
    token := bearerToken(c)
    if token == "" {
      token = c.Query("token")
    }
    if token == "" {
      handlers.RespondError(c, apperr.Unauthorized("missing access token"))
      c.Abort()
      return
    }
    rd, err := am.authService.ParseAccess(token)
    if err != nil {
      am.log.Debug("rejected access token", "error", err)
      handlers.RespondError(c, apperr.Unauthorized("invalid or expired access token"))
      c.Abort()
      return
    }
    c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
    c.Next()
  }
}

func bearerToken(c *gin.Context) string {
  header := c.GetHeader("Authorization")
  if header == "" {
    return ""
  }
  parts := strings.SplitN(header, " ", 2)
  if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
    return ""
  }
  return strings.TrimSpace(parts[1])
}
