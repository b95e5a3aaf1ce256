package domain

import (
	"errors"
	"fmt"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

var (
	// ErrMissingCredentialSource indicates no trusted identity header was
	// present on an authentication attempt.
	ErrMissingCredentialSource = errors.New("missing credential source")

	// ErrInvalidSignature indicates a token whose signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrExpired indicates a token past its expiry.
	ErrExpired = errors.New("token expired")

	// ErrUsernameTaken indicates a username collision with another identity.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrConflict indicates a unique constraint violation at the store level.
	ErrConflict = errors.New("conflict")
)
