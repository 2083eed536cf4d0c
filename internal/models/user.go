package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	Username       string
	HashedPassword string
	IsActive       bool
}

type Profile struct {
	UserID      uuid.UUID
	CreatedAt   time.Time
	Username    string
	DisplayName string
}
