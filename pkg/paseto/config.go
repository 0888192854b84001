package pasetotoken

import (
	"time"

	"github.com/Alijeyrad/simorq_scheduler/config"
)

// NewPasetoManager builds a Manager from the authentication.paseto section.
func NewPasetoManager(cfg *config.Config) (*Manager, error) {
	p := cfg.Authentication.Paseto

	keys, err := ParseKeys(Mode(p.Mode), p.LocalKeyHex, p.SecretKeyHex, p.PublicKeyHex)
	if err != nil {
		return nil, err
	}

	return New(Config{
		Mode:      Mode(p.Mode),
		Issuer:    p.Issuer,
		Audience:  p.Audience,
		AccessTTL: time.Duration(p.AccessTTLMinutes) * time.Minute,
	}, keys)
}
