package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-user-auth/internal/api"
)

// Define typed context keys
type contextKey string

const UserIDKey contextKey = "userID"
const AccessTokenKey contextKey = "accessToken"

// Authenticate validates the Bearer access token against the full session
// lifecycle (signature, expiry, live session) and adds the user ID and
// raw token to the request context.
func Authenticate(service AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			tokenString, err := BearerToken(r)
			if err != nil {
				l.WarnContext(ctx, "Missing or malformed Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized,
					api.NewAuthError(api.CodeAuthError, err.Error()))
				return
			}

			user, err := service.ValidateToken(ctx, tokenString)
			if err != nil {
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				code := api.CodeAuthError
				msg := "Invalid token"
				if errors.Is(err, api.ErrTokenExpired) {
					code = api.CodeTokenExpired
					msg = "Token has expired"
				}
				api.ErrorResponse(w, r, http.StatusUnauthorized, api.NewAuthError(code, msg))
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, user.ID.String())
			ctx = context.WithValue(ctx, AccessTokenKey, tokenString)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header required")
	}
	headerParts := strings.Split(authHeader, " ")
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
		return "", errors.New("authorization header format must be Bearer {token}")
	}
	return headerParts[1], nil
}

// GetUserIDFromContext returns the user ID set by Authenticate.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetAccessTokenFromContext returns the raw token set by Authenticate.
func GetAccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(AccessTokenKey).(string)
	return token, ok
}
