package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-auth/internal/types"
)

// ErrInvalidToken covers malformed, unknown, or already-consumed tokens.
// Distinct from api.ErrTokenExpired so clients know when a refresh is
// worth attempting.
var ErrInvalidToken = errors.New("invalid or unknown token")

// ErrTooManyAttempts signals the login throttle tripped for an email.
var ErrTooManyAttempts = errors.New("too many failed login attempts")

// Session binds a user to a live token pair. ExpiresAt is the refresh
// horizon: past it the session cannot be refreshed or validated. The
// access token carries its own shorter expiry inside the JWT.
type Session struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"userId"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login/refresh response body. ExpiresIn is
// seconds until the access token expires, not the refresh token.
type LoginResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken"`
	User         types.UserSummary `json:"user"`
	ExpiresIn    int64             `json:"expiresIn"`
}

// RefreshRequest represents the refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// ValidateResponse represents the token validation response body.
type ValidateResponse struct {
	Valid bool               `json:"valid"`
	User  *types.UserSummary `json:"user,omitempty"`
}

// Claims is the access-token JWT payload.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
