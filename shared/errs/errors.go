// Package errs defines the domain error kinds shared by every service.
// Services wrap them with context (fmt.Errorf("...: %w", errs.ErrNotFound));
// handlers match them with errors.Is and translate them into HTTP statuses.
package errs

import "errors"

var (
	// ErrNotFound means the addressed record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the record exists but belongs to another principal.
	ErrForbidden = errors.New("unauthorized access to resource")

	// ErrConflict means a unique attribute (the user email) is already taken.
	ErrConflict = errors.New("email already registered")

	// ErrIncorrectPassword is returned when a password gate check fails.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrInvalidCredentials is returned by login for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("incorrect email or password")

	// ErrInvalidToken is returned when a refresh token does not verify or its user is gone.
	ErrInvalidToken = errors.New("invalid token")

	ErrInvalidInput = errors.New("invalid input")
)
