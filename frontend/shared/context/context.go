// Package context carries the signed-in session through request handling.
package context

import (
	"context"

	"miragepos/models"
)

type sessionKey struct{}

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// Username names the signed-in user for log lines, or "" outside a session.
func Username(ctx context.Context) string {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s.User.Username
	}
	return ""
}

// UserID is the signed-in user's id, or 0 outside a session.
func UserID(ctx context.Context) int64 {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s.User.ID
	}
	return 0
}
