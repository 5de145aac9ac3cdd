package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/chirpchat/chirp-backend/internal/apperr"
  "github.com/chirpchat/chirp-backend/internal/requestdata"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

// RespondError maps the error taxonomy onto HTTP. Upstream failures hide
// their internals behind a generic message; everything else surfaces its
// own text.
func RespondError(c *gin.Context, err error) {
  ae := apperr.From(err)
  msg := ae.Error()
  if ae.Code == apperr.CodeUpstream {
    msg = "internal error"
  }
  c.JSON(ae.Status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    ae.Code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
  c.JSON(http.StatusCreated, payload)
}

// requesterID pulls the authenticated user id placed by the auth middleware.
func requesterID(c *gin.Context) uint {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    return 0
  }
  return rd.UserID
}
