package token

import (
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"

	"github.com/Alijeyrad/clinic_ledger/config"
)

type Options struct {
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Manager issues and verifies PASETO v4 tokens.
type Manager struct {
	opts Options
	keys Keys
}

func New(opts Options, keys Keys) (*Manager, error) {
	if opts.Issuer == "" {
		return nil, ErrConfig{Msg: "issuer is required"}
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 15 * time.Minute
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	switch keys.Mode {
	case ModeLocal:
		if keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
	case ModePublic:
		if keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
	default:
		return nil, ErrConfig{Msg: "unknown mode"}
	}
	return &Manager{opts: opts, keys: keys}, nil
}

// NewFromConfig builds a Manager from the authentication section.
func NewFromConfig(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto
	keys, err := LoadKeys(Mode(p.Mode), p.LocalKeyHex, p.SecretKeyHex, p.PublicKeyHex)
	if err != nil {
		return nil, err
	}
	return New(Options{
		Issuer:     p.Issuer,
		Audience:   p.Audience,
		AccessTTL:  time.Duration(p.AccessTTLMinutes) * time.Minute,
		RefreshTTL: time.Duration(p.RefreshTTLDays) * 24 * time.Hour,
	}, keys)
}

func (m *Manager) IssueAccess(userID uuid.UUID, sessionID *uuid.UUID) (string, error) {
	return m.issue(TypeAccess, userID, sessionID, m.opts.AccessTTL)
}

func (m *Manager) IssueRefresh(userID uuid.UUID, sessionID *uuid.UUID) (string, error) {
	return m.issue(TypeRefresh, userID, sessionID, m.opts.RefreshTTL)
}

func (m *Manager) issue(typ Type, userID uuid.UUID, sessionID *uuid.UUID, ttl time.Duration) (string, error) {
	now := m.opts.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.opts.Issuer)
	if m.opts.Audience != "" {
		tok.SetAudience(m.opts.Audience)
	}
	tok.SetJti(uuid.NewString())
	tok.SetSubject(userID.String())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(ttl))
	tok.SetString("typ", string(typ))
	if sessionID != nil {
		tok.SetString("sid", sessionID.String())
	}

	if m.keys.Mode == ModeLocal {
		return tok.V4Encrypt(*m.keys.Symmetric, nil), nil
	}
	if m.keys.Secret == nil {
		return "", ErrConfig{Msg: "verify-only manager cannot sign"}
	}
	return tok.V4Sign(*m.keys.Secret, nil), nil
}

// Verify checks signature, issuer, audience and validity window, and that
// the token is of the wanted type.
func (m *Manager) Verify(raw string, want Type) (*Claims, error) {
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.opts.Issuer))
	if m.opts.Audience != "" {
		p.AddRule(paseto.ForAudience(m.opts.Audience))
	}
	p.AddRule(paseto.ValidAt(m.opts.Now()))

	var (
		tok *paseto.Token
		err error
	)
	if m.keys.Mode == ModeLocal {
		tok, err = p.ParseV4Local(*m.keys.Symmetric, raw, nil)
	} else {
		tok, err = p.ParseV4Public(*m.keys.Public, raw, nil)
	}
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := m.claims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	if claims.Type != want {
		return nil, ErrInvalidToken{Err: ErrWrongType}
	}
	return claims, nil
}

func (m *Manager) claims(tok *paseto.Token) (*Claims, error) {
	out := &Claims{now: m.opts.Now}

	sub, err := tok.GetSubject()
	if err != nil {
		return nil, err
	}
	if out.UserID, err = uuid.Parse(sub); err != nil {
		return nil, err
	}
	if out.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if out.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if out.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}
	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	out.Type = Type(typ)

	if sid, err := tok.GetString("sid"); err == nil {
		id, err := uuid.Parse(sid)
		if err != nil {
			return nil, err
		}
		out.SessionID = &id
	}
	return out, nil
}
