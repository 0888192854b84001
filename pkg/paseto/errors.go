package pasetotoken

import "errors"

var (
	// ErrMisconfigured is wrapped by every key or manager setup failure.
	ErrMisconfigured = errors.New("paseto: misconfigured")
	// ErrInvalidToken is wrapped by every verification failure.
	ErrInvalidToken = errors.New("paseto: invalid token")
)
