// Package net holds request context helpers for the status surface
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestID returns the chi request id on ctx, or ""
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithRequestID stores id where RequestID and chi can find it
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, chimw.RequestIDKey, id)
}
