package token

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

// Claims is the verified payload of a token. It satisfies
// reqctx.AuthClaims.
type Claims struct {
	Type      Type
	UserID    uuid.UUID
	SessionID *uuid.UUID
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time

	now func() time.Time
}

func (c *Claims) GetUserID() uuid.UUID     { return c.UserID }
func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }
func (c *Claims) GetTokenType() string     { return string(c.Type) }

func (c *Claims) IsExpired() bool {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return !now().Before(c.ExpiresAt)
}
