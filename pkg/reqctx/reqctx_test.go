package reqctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type fakeClaims struct {
	user    uuid.UUID
	expired bool
}

func (f fakeClaims) GetUserID() uuid.UUID     { return f.user }
func (f fakeClaims) GetSessionID() *uuid.UUID { return nil }
func (f fakeClaims) GetTokenType() string     { return "access" }
func (f fakeClaims) IsExpired() bool          { return f.expired }

func TestActorFromContext(t *testing.T) {
	ctx := context.Background()
	if got := ActorFromContext(ctx); got != nil {
		t.Fatalf("ActorFromContext(empty) = %v, want nil", got)
	}

	id := uuid.New()
	ctx = WithClaims(ctx, fakeClaims{user: id})
	got := ActorFromContext(ctx)
	if got == nil || *got != id {
		t.Fatalf("ActorFromContext() = %v, want %s", got, id)
	}
	if !IsAuthenticated(ctx) {
		t.Error("IsAuthenticated() = false")
	}

	expired := WithClaims(context.Background(), fakeClaims{user: id, expired: true})
	if IsAuthenticated(expired) {
		t.Error("IsAuthenticated(expired) = true")
	}
}

func TestRequestID(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("RequestIDFromContext(empty) = %q", got)
	}
	ctx := WithRequestMeta(context.Background(), &RequestMeta{RequestID: "req-1"})
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Errorf("RequestIDFromContext() = %q", got)
	}
	if got := TraceIDFromContext(ctx); got != "" {
		t.Errorf("TraceIDFromContext(no span) = %q", got)
	}
}
