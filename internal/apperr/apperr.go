package apperr

import (
  "errors"
  "fmt"
  "net/http"
)

// Error codes surfaced to clients. Internal details stay in Err and are
// logged, never serialized.
const (
  CodeValidation    = "validation_error"
  CodeChatNotFound  = "chat_not_found"
  CodeUserNotFound  = "user_not_found"
  CodeMsgNotFound   = "message_not_found"
  CodeSenderBlocked = "sender_blocked"
  CodeNotOwner      = "not_owner"
  CodeNotAdmin      = "not_admin"
  CodeNotMember     = "not_member"
  CodeUnauthorized  = "unauthorized"
  CodeUpstream      = "upstream_unavailable"
)

type Error struct {
  Status int
  Code   string
  Err    error
}

func (e *Error) Error() string {
  if e == nil {
    return ""
  }
  if e.Err != nil {
    return e.Err.Error()
  }
  if e.Code != "" {
    return e.Code
  }
  if e.Status != 0 {
    return fmt.Sprintf("api error (%d)", e.Status)
  }
  return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
  return &Error{Status: status, Code: code, Err: err}
}

func Validation(format string, args ...interface{}) *Error {
  return New(http.StatusBadRequest, CodeValidation, fmt.Errorf(format, args...))
}

func BadRequest(code, format string, args ...interface{}) *Error {
  return New(http.StatusBadRequest, code, fmt.Errorf(format, args...))
}

func NotFound(code, format string, args ...interface{}) *Error {
  return New(http.StatusNotFound, code, fmt.Errorf(format, args...))
}

func Forbidden(code, format string, args ...interface{}) *Error {
  return New(http.StatusForbidden, code, fmt.Errorf(format, args...))
}

func Unauthorized(format string, args ...interface{}) *Error {
  return New(http.StatusUnauthorized, CodeUnauthorized, fmt.Errorf(format, args...))
}

// Upstream wraps store/cache failures as a 5xx. The original error is kept
// for logs only.
func Upstream(err error) *Error {
  return New(http.StatusInternalServerError, CodeUpstream, err)
}

// From extracts an *Error or wraps err as Upstream.
func From(err error) *Error {
  var ae *Error
  if errors.As(err, &ae) {
    return ae
  }
  return Upstream(err)
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
  var ae *Error
  if errors.As(err, &ae) {
    return ae.Code == code
  }
  return false
}
