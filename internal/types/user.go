package types

import (
	"time"

	"github.com/google/uuid"
)

// User represents the core user entity in the domain.
type User struct {
	ID           uuid.UUID `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"` // Unique identifier (UUID).
	Email        string    `json:"email" example:"john.doe@example.com"`              // Unique email address used for login (compared case-insensitively).
	PasswordHash string    `json:"-"`                                                 // Hashed password (never exposed).
	Name         *string   `json:"name"`                                              // Optional display name.
	IsActive     bool      `json:"isActive"`                                          // Deactivation is terminal; inactive users cannot log in.
	CreatedAt    time.Time `json:"createdAt"`                                         // Timestamp when the user was created.
	UpdatedAt    time.Time `json:"updatedAt"`                                         // Timestamp when the user was last updated.
}

// UserSummary is the public projection of a User embedded in auth responses.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  *string   `json:"name"`
}

// Summary strips the User down to its public fields.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name}
}
