// Package net holds transport-agnostic request context helpers
package net

import "context"

type ctxKey struct{ name string }

var keyRequestID = ctxKey{"request_id"}

// WithRequestID returns a child context carrying the request id
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the request id from ctx or empty
func RequestID(ctx context.Context) string {
	if v := ctx.Value(keyRequestID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
