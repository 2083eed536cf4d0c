package models

import (
	"time"

	"github.com/google/uuid"
)

// Refresh token record
// ID is the session id embedded into both tokens of a pair; the raw token itself is never stored
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	Revoked   bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issues by TokenManager, AuthService
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Identity extracted from a verified token
type Identity struct {
	UserID    uuid.UUID
	Email     string
	SessionID uuid.UUID
}
