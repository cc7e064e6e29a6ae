// Package auth carries the authenticated identity of a request.
package auth

import "context"

type contextKey struct{}

// Context identifies the signed-in user for the duration of a request.
// UserID is the profile row id; SubjectID is the stable identity the
// session was issued for.
type Context struct {
	UserID    int64
	SubjectID string
	Email     string
	SessionID int64
}

// WithContext returns a copy of ctx carrying the auth context.
func WithContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

// FromContext extracts the auth context, or nil if the request is
// unauthenticated.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(contextKey{}).(*Context)
	return ac
}
