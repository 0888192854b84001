package pasetotoken

import (
	"fmt"
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local, encrypted
	ModePublic Mode = "public" // v4.public, signed
)

// Keys holds the key material for one mode. Local mode uses Symmetric only.
// Public mode needs Secret to issue and Public to verify; a verify-only
// deployment may carry Public alone.
type Keys struct {
	Mode      Mode
	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

// ParseKeys decodes hex key material for mode. Blank strings mean "not set".
// In public mode the public key is derived from the secret when only the
// secret is given.
func ParseKeys(mode Mode, localHex, secretHex, publicHex string) (Keys, error) {
	localHex, secretHex, publicHex = strings.TrimSpace(localHex), strings.TrimSpace(secretHex), strings.TrimSpace(publicHex)

	switch mode {
	case ModeLocal:
		if localHex == "" {
			return Keys{}, fmt.Errorf("%w: local mode needs local_key_hex", ErrMisconfigured)
		}
		k, err := paseto.V4SymmetricKeyFromHex(localHex)
		if err != nil {
			return Keys{}, fmt.Errorf("%w: local_key_hex: %v", ErrMisconfigured, err)
		}
		return Keys{Mode: mode, Symmetric: &k}, nil

	case ModePublic:
		keys := Keys{Mode: mode}
		if secretHex != "" {
			sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secretHex)
			if err != nil {
				return Keys{}, fmt.Errorf("%w: secret_key_hex: %v", ErrMisconfigured, err)
			}
			pk := sk.Public()
			keys.Secret, keys.Public = &sk, &pk
		}
		if publicHex != "" {
			pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(publicHex)
			if err != nil {
				return Keys{}, fmt.Errorf("%w: public_key_hex: %v", ErrMisconfigured, err)
			}
			keys.Public = &pk
		}
		if keys.Public == nil {
			return Keys{}, fmt.Errorf("%w: public mode needs secret_key_hex or public_key_hex", ErrMisconfigured)
		}
		return keys, nil

	default:
		return Keys{}, fmt.Errorf("%w: unknown mode %q, use local or public", ErrMisconfigured, mode)
	}
}

// GenerateKeys returns fresh random keys for mode.
func GenerateKeys(mode Mode) (Keys, error) {
	switch mode {
	case ModeLocal:
		k := paseto.NewV4SymmetricKey()
		return Keys{Mode: mode, Symmetric: &k}, nil
	case ModePublic:
		sk := paseto.NewV4AsymmetricSecretKey()
		pk := sk.Public()
		return Keys{Mode: mode, Secret: &sk, Public: &pk}, nil
	default:
		return Keys{}, fmt.Errorf("%w: unknown mode %q, use local or public", ErrMisconfigured, mode)
	}
}
