package requestdata

import (
  "context"
)

type ctxKey struct{}

var requestDataKey ctxKey

type RequestData struct {
  TokenString string
  UserID      uint
  Username    string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}
