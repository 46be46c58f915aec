package context

import (
	"context"
	"time"
)

// Caller identifies the authenticated client of a request.
type Caller struct {
	Subject   string
	Issuer    string
	ExpiresAt time.Time
}

type callerKey struct{}

// WithCaller adds Caller to context.
func WithCaller(ctx context.Context, caller *Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// GetCaller returns Caller from context, nil for anonymous requests.
func GetCaller(ctx context.Context) *Caller {
	if v, ok := ctx.Value(callerKey{}).(*Caller); ok {
		return v
	}
	return nil
}

// GetSubject returns the caller subject or empty string.
func GetSubject(ctx context.Context) string {
	if c := GetCaller(ctx); c != nil {
		return c.Subject
	}
	return ""
}
