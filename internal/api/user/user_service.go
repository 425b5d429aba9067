package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/api/auth"
	"github.com/FACorreiaa/go-user-auth/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

const minPasswordLength = 8

// SessionRevoker is the slice of the session store the user service needs
// to tear down sessions when an account is deactivated.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// UserService defines the interface for user management operations.
type UserService interface {
	// Create registers a new user. A duplicate email fails with a
	// field-level validation error.
	Create(ctx context.Context, req CreateUserRequest) (*types.User, error)

	// FindByEmail looks a user up by email, compared case-insensitively.
	FindByEmail(ctx context.Context, email string) (*types.User, error)

	// FindByID looks a user up by ID.
	FindByID(ctx context.Context, userID uuid.UUID) (*types.User, error)

	// Authenticate checks credentials and returns the matching user.
	// Unknown email, inactive account, and wrong password all fail with
	// the same error.
	Authenticate(ctx context.Context, email, password string) (*types.User, error)

	// Deactivate marks the user inactive and revokes all their sessions.
	Deactivate(ctx context.Context, userID uuid.UUID) error
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	logger   *slog.Logger
	repo     UserRepo
	verifier *auth.CredentialVerifier
	sessions SessionRevoker
}

func NewUserService(repo UserRepo, verifier *auth.CredentialVerifier, sessions SessionRevoker, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger:   logger,
		repo:     repo,
		verifier: verifier,
		sessions: sessions,
	}
}

// Create registers a new user, storing only the password hash.
func (s *UserServiceImpl) Create(ctx context.Context, req CreateUserRequest) (*types.User, error) {
	l := s.logger.With(slog.String("method", "Create"))

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, api.NewValidationError("email", "invalid email address", "RFC 5322 address", req.Email)
	}
	if len(req.Password) < minPasswordLength {
		return nil, api.NewValidationError("password",
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
			fmt.Sprintf("string with length >= %d", minPasswordLength), nil)
	}

	hash, err := s.verifier.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, types.User{
		Email:        email,
		PasswordHash: hash,
		Name:         req.Name,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, api.ErrConflict) {
			return nil, api.NewValidationError("email", "email already registered", "unused email address", req.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("user_id", created.ID.String()))
	return created, nil
}

func (s *UserServiceImpl) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

func (s *UserServiceImpl) FindByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// Authenticate verifies credentials. Not-found, inactive, and mismatch
// are indistinguishable to the caller.
func (s *UserServiceImpl) Authenticate(ctx context.Context, email, password string) (*types.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("authentication failed: %w", api.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("authentication lookup failed: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("authentication failed: %w", api.ErrUnauthenticated)
	}

	ok, err := s.verifier.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("credential verification failed: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("authentication failed: %w", api.ErrUnauthenticated)
	}

	return user, nil
}

// Deactivate marks the user inactive and revokes all their sessions so
// outstanding tokens stop validating immediately.
func (s *UserServiceImpl) Deactivate(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "Deactivate"))

	if err := s.repo.Deactivate(ctx, userID); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		// The account is already inactive; validation rejects its tokens
		// regardless, so log and carry on.
		l.ErrorContext(ctx, "Failed to revoke sessions for deactivated user",
			slog.String("user_id", userID.String()), slog.Any("error", err))
	}

	return nil
}
