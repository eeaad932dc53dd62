package domain

import "context"

type contextKey string

const connectionIDKey contextKey = "connection_id"

func WithConnectionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, connectionIDKey, id)
}

func ConnectionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(connectionIDKey).(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}
