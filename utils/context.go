package utils

import (
	"context"

	"github.com/google/uuid"
)

type rqIDKey struct{}

func GetRequestIDFromCtx(ctx context.Context) string {
	rqID, ok := ctx.Value(rqIDKey{}).(string)
	if !ok {
		return ""
	}
	return rqID
}

// CreateCtxWithRqID returns a child context carrying a fresh request ID,
// keeping the one already present if any.
func CreateCtxWithRqID(ctx context.Context) context.Context {
	if rqID := GetRequestIDFromCtx(ctx); rqID != "" {
		return ctx
	}
	return context.WithValue(ctx, rqIDKey{}, uuid.NewString())
}
