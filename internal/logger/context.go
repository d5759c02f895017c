package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	userIDKey    ctxKey = "user_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// WithUserID tags the context with the authenticated buyer, so log lines from
// every layer below the auth middleware identify who acted.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFrom(ctx context.Context) (uint, bool) {
	v, ok := ctx.Value(userIDKey).(uint)
	return v, ok
}

// FromCtx returns the logger with request_id and user_id automatically added
// when the context carries them.
func FromCtx(ctx context.Context) *zap.Logger {
	fields := make([]zap.Field, 0, 2)
	if reqID := RequestIDFrom(ctx); reqID != "" {
		fields = append(fields, zap.String("request_id", reqID))
	}
	if userID, ok := UserIDFrom(ctx); ok {
		fields = append(fields, zap.Uint("user_id", userID))
	}
	if len(fields) == 0 {
		return L()
	}
	return L().With(fields...)
}
