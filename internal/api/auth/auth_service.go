package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-auth/app/observability/metrics"
	"github.com/FACorreiaa/go-user-auth/config"
	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// UserFinder is the slice of the user repository the auth service needs.
type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

// AuthService orchestrates the session lifecycle: a session moves from
// active to replaced (refresh) or revoked (logout, expiry, deactivation),
// and never back.
type AuthService interface {
	// Login authenticates credentials and opens a new session.
	Login(ctx context.Context, email, password string) (*LoginResponse, error)

	// Refresh rotates a refresh token into a new session, consuming the
	// old token exactly once.
	Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error)

	// Logout revokes the session owning the access token. Idempotent.
	Logout(ctx context.Context, token string) error

	// ValidateToken checks signature, expiry, and that the backing
	// session is still live, returning the owning user.
	ValidateToken(ctx context.Context, token string) (*types.User, error)
}

// AuthServiceImpl implements the AuthService interface.
type AuthServiceImpl struct {
	logger   *slog.Logger
	users    UserFinder
	sessions SessionRepo
	issuer   *TokenIssuer
	verifier *CredentialVerifier
	throttle *loginThrottle
	now      func() time.Time
}

// dummyHash is burned on the user-not-found path so its latency matches a
// real password mismatch.
var dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

func NewAuthService(users UserFinder, sessions SessionRepo, issuer *TokenIssuer, verifier *CredentialVerifier, cfg *config.Config, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger:   logger,
		users:    users,
		sessions: sessions,
		issuer:   issuer,
		verifier: verifier,
		throttle: newLoginThrottle(cfg.RateLimit),
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login authenticates a user and opens a new session. Unknown email,
// wrong password, and deactivated account all fail with the same
// ErrUnauthenticated so callers cannot probe which accounts exist.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	l := s.logger.With(slog.String("method", "Login"))
	email = normalizeEmail(email)
	metrics.Get().LoginAttemptsTotal.Add(ctx, 1)

	if s.throttle.blocked(email) {
		l.WarnContext(ctx, "Login throttled")
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			_, _ = s.verifier.Verify(password, dummyHash)
			s.recordFailure(ctx, email)
			return nil, fmt.Errorf("login failed: %w", api.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("login user lookup failed: %w", err)
	}

	if !user.IsActive {
		_, _ = s.verifier.Verify(password, dummyHash)
		s.recordFailure(ctx, email)
		return nil, fmt.Errorf("login failed: %w", api.ErrUnauthenticated)
	}

	ok, err := s.verifier.Verify(password, user.PasswordHash)
	if err != nil {
		l.ErrorContext(ctx, "Credential verification failed", slog.Any("error", err))
		return nil, fmt.Errorf("credential verification failed: %w", err)
	}
	if !ok {
		s.recordFailure(ctx, email)
		return nil, fmt.Errorf("login failed: %w", api.ErrUnauthenticated)
	}

	pair, err := s.issuer.Issue(user.ID.String(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	_, err = s.sessions.Create(ctx, Session{
		UserID:       user.ID,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.throttle.reset(email)
	l.InfoContext(ctx, "User logged in", slog.String("user_id", user.ID.String()))

	return &LoginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Summary(),
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

func (s *AuthServiceImpl) recordFailure(ctx context.Context, email string) {
	s.throttle.fail(email)
	metrics.Get().LoginFailuresTotal.Add(ctx, 1)
}

// Refresh rotates a refresh token into a new session. Presenting an
// already-consumed refresh token revokes every session of the owning
// user: a replayed token means the chain can no longer be trusted.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	l := s.logger.With(slog.String("method", "Refresh"))

	sess, err := s.sessions.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("refresh failed: %w", ErrInvalidToken)
		}
		return nil, fmt.Errorf("refresh lookup failed: %w", err)
	}

	now := s.now()
	if sess.RevokedAt != nil {
		l.WarnContext(ctx, "Refresh token reuse detected, revoking all user sessions",
			slog.String("user_id", sess.UserID.String()))
		if err := s.sessions.RevokeAllForUser(ctx, sess.UserID); err != nil {
			l.ErrorContext(ctx, "Failed to revoke sessions after token reuse", slog.Any("error", err))
		}
		return nil, fmt.Errorf("refresh token reuse: %w", ErrInvalidToken)
	}
	if !now.Before(sess.ExpiresAt) {
		return nil, fmt.Errorf("refresh failed: %w", api.ErrTokenExpired)
	}

	user, err := s.users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("refresh user lookup failed: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("refresh failed: %w", api.ErrUnauthenticated)
	}

	pair, err := s.issuer.Issue(user.ID.String(), user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to issue tokens: %w", err)
	}

	_, err = s.sessions.Rotate(ctx, refreshToken, Session{
		UserID:       user.ID,
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.RefreshExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to rotate session: %w", err)
	}

	metrics.Get().TokenRotationsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "Session rotated", slog.String("user_id", user.ID.String()))

	return &LoginResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         user.Summary(),
		ExpiresIn:    int64(s.issuer.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes the session owning the access token. A token that maps
// to no session is treated as success so repeated logouts stay idempotent.
func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("logout lookup failed: %w", err)
	}

	if err := s.sessions.Revoke(ctx, sess.ID); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	metrics.Get().SessionsRevokedTotal.Add(ctx, 1)
	return nil
}

// ValidateToken checks the token signature and expiry, then confirms the
// backing session is still live. The store lookup is required because
// token expiry alone does not reflect out-of-band revocation (logout).
func (s *AuthServiceImpl) ValidateToken(ctx context.Context, token string) (*types.User, error) {
	userIDStr, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("no session for token: %w", ErrInvalidToken)
		}
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	if sess.RevokedAt != nil {
		return nil, fmt.Errorf("session revoked: %w", ErrInvalidToken)
	}
	if !s.now().Before(sess.ExpiresAt) {
		return nil, fmt.Errorf("session expired: %w", api.ErrTokenExpired)
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, fmt.Errorf("malformed user id in token: %w", ErrInvalidToken)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, fmt.Errorf("token owner not found: %w", ErrInvalidToken)
		}
		return nil, fmt.Errorf("user lookup failed: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("user deactivated: %w", api.ErrUnauthenticated)
	}

	return user, nil
}
