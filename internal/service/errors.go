// Package service implements account registration and login, the article
// operations and upload storage on top of the repositories.
package service

import "errors"

var (
	// ErrInvalidInput reports a request the service cannot act on.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicateUsername reports a registration for a taken username.
	ErrDuplicateUsername = errors.New("username already exists")
	// ErrInvalidCredentials reports an unknown user or a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrNotFound reports that no article matches the requested id.
	ErrNotFound = errors.New("article not found")
	// ErrNoPayload reports an upload without a file.
	ErrNoPayload = errors.New("no file uploaded")
)

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrNoPayload)
}
