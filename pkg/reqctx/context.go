package reqctx

import (
	"context"
	"time"
)

// ctxKey is a private type for context keys to prevent collisions.
type ctxKey int

const (
	keyRequestMeta ctxKey = iota
	keyClaims
)

// RequestMeta holds per-request metadata set by HTTP middleware.
type RequestMeta struct {
	// RequestID is taken from X-Request-ID or generated (UUID v4).
	RequestID string

	// ClientIP is the caller address as fiber resolves it, proxy headers
	// included when trusted.
	ClientIP string

	// UserAgent is the raw User-Agent header.
	UserAgent string

	// RequestedAt is when the middleware saw the request.
	RequestedAt time.Time
}

// WithRequestMeta returns a child context carrying meta.
func WithRequestMeta(ctx context.Context, meta *RequestMeta) context.Context {
	return context.WithValue(ctx, keyRequestMeta, meta)
}

// RequestMetaFromContext returns the metadata stored by WithRequestMeta.
// It returns nil, false if the middleware did not run.
func RequestMetaFromContext(ctx context.Context) (*RequestMeta, bool) {
	meta, ok := ctx.Value(keyRequestMeta).(*RequestMeta)
	return meta, ok && meta != nil
}

// RequestIDFromContext returns the request id for log lines and error
// bodies, or "" outside an HTTP request.
func RequestIDFromContext(ctx context.Context) string {
	if meta, ok := RequestMetaFromContext(ctx); ok {
		return meta.RequestID
	}
	return ""
}
