package reqctx

import (
	"context"

	"github.com/google/uuid"
)

// AuthClaims is what the services need to know about the caller. The
// PASETO claims implement it.
type AuthClaims interface {
	GetUserID() uuid.UUID
	GetSessionID() *uuid.UUID
	GetTokenType() string
	IsExpired() bool
}

// WithClaims returns a child context carrying the verified token claims.
// The auth middleware calls it once per request.
func WithClaims(ctx context.Context, claims AuthClaims) context.Context {
	return context.WithValue(ctx, keyClaims, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims, or nil for
// unauthenticated requests.
func ClaimsFromContext(ctx context.Context) AuthClaims {
	claims, _ := ctx.Value(keyClaims).(AuthClaims)
	return claims
}

// IsAuthenticated reports whether the context carries unexpired claims.
func IsAuthenticated(ctx context.Context) bool {
	claims := ClaimsFromContext(ctx)
	return claims != nil && !claims.IsExpired()
}

// ActorFromContext returns the acting user id recorded as added_by or
// created_by, or nil when the request carries no claims.
func ActorFromContext(ctx context.Context) *uuid.UUID {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return nil
	}
	id := claims.GetUserID()
	if id == uuid.Nil {
		return nil
	}
	return &id
}
