package service

import (
	"errors"
	"fmt"

	"github.com/MikhailRaia/shortlinks/internal/storage"
)

var (
	// ErrUnauthorized means the credential is missing or could not be resolved.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the principal is valid but does not own the link.
	ErrForbidden = errors.New("forbidden")
	ErrNotFound  = errors.New("short link not found")
	// ErrValidation means a destination or parameter is malformed.
	ErrValidation = errors.New("validation failed")
	// ErrExhausted means every candidate within the attempt budget was already taken.
	ErrExhausted = errors.New("short id space exhausted")

	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

func validationError(reason string) error {
	return fmt.Errorf("%w: %s", ErrValidation, reason)
}

// fromStore translates storage sentinels into service errors and wraps the rest.
func fromStore(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrForbidden):
		return ErrForbidden
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
