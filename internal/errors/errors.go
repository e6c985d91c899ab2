package errors

import "errors"

// Error kinds surfaced by the account service. Callers match them with Is.
var (
	// Account errors
	ErrDuplicateIdentity  = errors.New("a user with the given credentials exists")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Unavailable collaborators: the credential store or the identity provider
	ErrTransientStore = errors.New("dependency unavailable")

	// General errors
	ErrInvalidRequest = errors.New("invalid request")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// IsSessionError reports whether err means the presented session cannot be used
// and the client should discard its tokens.
func IsSessionError(err error) bool {
	return Is(err, ErrNotFound) || Is(err, ErrInvalidToken) || Is(err, ErrTokenExpired)
}
