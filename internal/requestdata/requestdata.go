package requestdata

import (
	"context"
)

type key struct{}

var requestDataKey key

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

// RequestData carries the identity verified by the auth middleware. UserID is
// the identity provider's opaque subject and is trusted as-is downstream.
type RequestData struct {
	TokenString string
	UserID      string
	SessionID   string
}

// UserID returns the verified user id on ctx, or "" when the request is
// unauthenticated.
func UserID(ctx context.Context) string {
	if rd := GetRequestData(ctx); rd != nil {
		return rd.UserID
	}
	return ""
}
