package apperrors

import (
	"errors"
	"fmt"
)

// Error classes visible to the boundary.
// Every detailed error below wraps exactly one of them, so callers may classify with errors.Is
var (
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)

	// Store level, has no class: the service decides what it means for the caller
	ErrUserNotFound = errors.New("user not found")

	ErrRefreshTokenMalformed = fmt.Errorf("%w: refresh token malformed", ErrForbidden)
	ErrRefreshTokenNotFound  = fmt.Errorf("%w: refresh token not found", ErrForbidden)
	ErrRefreshTokenRevoked   = fmt.Errorf("%w: refresh token is revoked", ErrForbidden)
	ErrRefreshTokenExpired   = fmt.Errorf("%w: refresh token is expired", ErrForbidden)
	ErrRefreshTokenMismatch  = fmt.Errorf("%w: refresh token does not match", ErrForbidden)
	ErrRefreshUserInactive   = fmt.Errorf("%w: refresh token owner not found or inactive", ErrForbidden)
)
