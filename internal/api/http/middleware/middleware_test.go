package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
	"github.com/Alijeyrad/clinic_ledger/pkg/token"
)

func newManager(t *testing.T) *token.Manager {
	t.Helper()
	m, err := token.New(token.Options{
		Issuer:     "clinic_ledger",
		Audience:   "clinic_ledger",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}, token.NewLocalKeys())
	if err != nil {
		t.Fatalf("token.New() error = %v", err)
	}
	return m
}

func TestAuthRequired(t *testing.T) {
	mgr := newManager(t)
	user := uuid.New()
	sid := uuid.New()

	access, err := mgr.IssueAccess(user, nil)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}
	refresh, err := mgr.IssueRefresh(user, nil)
	if err != nil {
		t.Fatalf("IssueRefresh() error = %v", err)
	}
	withSession, err := mgr.IssueAccess(user, &sid)
	if err != nil {
		t.Fatalf("IssueAccess() error = %v", err)
	}

	tests := []struct {
		name           string
		header         string
		requireSession bool
		want           int
	}{
		{name: "no header", want: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + access, want: fiber.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: fiber.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh, want: fiber.StatusUnauthorized},
		{name: "access token", header: "Bearer " + access, want: fiber.StatusOK},
		{name: "session required but absent", header: "Bearer " + access, requireSession: true, want: fiber.StatusUnauthorized},
		{name: "session present without store", header: "Bearer " + withSession, requireSession: true, want: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Use(RequestID())
			app.Get("/", AuthRequired(AuthConfig{Tokens: mgr, RequireSession: tt.requireSession}), func(c fiber.Ctx) error {
				actor := reqctx.ActorFromContext(c.Context())
				if actor == nil || *actor != user {
					return c.SendStatus(fiber.StatusTeapot)
				}
				return c.SendStatus(fiber.StatusOK)
			})

			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString(reqctx.RequestIDFromContext(c.Context()))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if got := resp.Header.Get(HeaderRequestID); got != "abc-123" {
		t.Errorf("echoed id = %q", got)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	if _, err := uuid.Parse(resp.Header.Get(HeaderRequestID)); err != nil {
		t.Errorf("generated id %q is not a uuid", resp.Header.Get(HeaderRequestID))
	}
}
