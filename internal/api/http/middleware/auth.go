package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Alijeyrad/clinic_ledger/pkg/redis"
	"github.com/Alijeyrad/clinic_ledger/pkg/reqctx"
	"github.com/Alijeyrad/clinic_ledger/pkg/token"
)

const LocalClaims = "claims"

type AuthConfig struct {
	Tokens *token.Manager
	// Sessions is consulted for tokens that carry a session id. Nil skips
	// the lookup.
	Sessions goredis.Cmdable
	// RequireSession rejects tokens without a session id.
	RequireSession bool
}

// AuthRequired validates a Bearer PASETO access token. On success the claims
// are stored in locals and on the request context.
func AuthRequired(cfg AuthConfig) fiber.Handler {
	return func(c fiber.Ctx) error {
		h := c.Get("Authorization")
		if h == "" {
			return fiber.ErrUnauthorized
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return fiber.ErrUnauthorized
		}

		claims, err := cfg.Tokens.Verify(strings.TrimSpace(parts[1]), token.TypeAccess)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if claims.SessionID == nil && cfg.RequireSession {
			return fiber.ErrUnauthorized
		}
		if claims.SessionID != nil && cfg.Sessions != nil {
			if err := cfg.Sessions.Get(c.Context(), redis.SessionKey(claims.SessionID.String())).Err(); err != nil {
				return fiber.ErrUnauthorized
			}
		}

		c.Locals(LocalClaims, claims)
		c.SetContext(reqctx.WithClaims(c.Context(), claims))
		return c.Next()
	}
}

// ClaimsFromFiber returns the claims stored by AuthRequired.
func ClaimsFromFiber(c fiber.Ctx) (*token.Claims, bool) {
	claims, ok := c.Locals(LocalClaims).(*token.Claims)
	return claims, ok && claims != nil
}
