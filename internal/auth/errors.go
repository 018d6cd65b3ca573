package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrForbidden    = errors.New("auth: forbidden")

	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password; the two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
