// Package pasetotoken issues and verifies the v4 access tokens that identify
// schedule owners.
package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const defaultAccessTTL = 15 * time.Minute

type Config struct {
	Mode      Mode
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	// Implicit is bound into every token and must match on verify.
	Implicit []byte
}

type Manager struct {
	cfg    Config
	keys   Keys
	parser paseto.Parser
}

func New(cfg Config, keys Keys) (*Manager, error) {
	switch {
	case cfg.Mode != keys.Mode:
		return nil, fmt.Errorf("%w: config mode %q does not match key mode %q", ErrMisconfigured, cfg.Mode, keys.Mode)
	case cfg.Issuer == "":
		return nil, fmt.Errorf("%w: issuer is required", ErrMisconfigured)
	case cfg.Audience == "":
		return nil, fmt.Errorf("%w: audience is required", ErrMisconfigured)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}

	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(cfg.Issuer))
	parser.AddRule(paseto.ForAudience(cfg.Audience))
	// NotExpired reads the clock on every parse; ValidAt would pin it here.
	parser.AddRule(paseto.NotExpired())

	return &Manager{cfg: cfg, keys: keys, parser: parser}, nil
}

func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

// IssueAccess mints an access token for owner. The HTTP server only verifies
// tokens; issuing is for the operator CLI and tests.
func (m *Manager) IssueAccess(owner uuid.UUID, sessionID *uuid.UUID) (string, error) {
	now := time.Now()

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetSubject(owner.String())
	tok.SetJti(newTokenID())
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(now.Add(m.cfg.AccessTTL))
	tok.SetString("typ", accessTokenType)
	if sessionID != nil {
		tok.SetString("sid", sessionID.String())
	}

	switch {
	case m.cfg.Mode == ModeLocal && m.keys.Symmetric != nil:
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), nil
	case m.cfg.Mode == ModePublic && m.keys.Secret != nil:
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), nil
	default:
		return "", fmt.Errorf("%w: no signing key for mode %q", ErrMisconfigured, m.cfg.Mode)
	}
}

// Verify parses tok, checks issuer, audience, expiry and type, and returns
// its claims. Every failure wraps ErrInvalidToken.
func (m *Manager) Verify(tok string) (*Claims, error) {
	var (
		parsed *paseto.Token
		err    error
	)
	switch {
	case m.cfg.Mode == ModeLocal && m.keys.Symmetric != nil:
		parsed, err = m.parser.ParseV4Local(*m.keys.Symmetric, tok, m.cfg.Implicit)
	case m.cfg.Mode == ModePublic && m.keys.Public != nil:
		parsed, err = m.parser.ParseV4Public(*m.keys.Public, tok, m.cfg.Implicit)
	default:
		return nil, fmt.Errorf("%w: no verification key for mode %q", ErrMisconfigured, m.cfg.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, err := claimsFrom(parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

func claimsFrom(tok *paseto.Token) (*Claims, error) {
	typ, err := tok.GetString("typ")
	if err != nil {
		return nil, err
	}
	if typ != accessTokenType {
		return nil, fmt.Errorf("token type %q is not accepted", typ)
	}

	sub, err := tok.GetSubject()
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(sub)
	if err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}

	c := &Claims{UserID: owner}
	if c.TokenID, err = tok.GetJti(); err != nil {
		return nil, err
	}
	if c.IssuedAt, err = tok.GetIssuedAt(); err != nil {
		return nil, err
	}
	if c.ExpiresAt, err = tok.GetExpiration(); err != nil {
		return nil, err
	}

	// sid is optional, but a present one must parse.
	if raw, err := tok.GetString("sid"); err == nil {
		sid, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("sid: %w", err)
		}
		c.SessionID = &sid
	}
	return c, nil
}

func newTokenID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
