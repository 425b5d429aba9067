package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-user-auth/internal/api"
)

type AuthHandler struct {
	AuthService AuthService
	logger      *slog.Logger
}

func NewAuthHandler(authService AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		AuthService: authService,
	}
}

// Login godoc
// @Summary      Login
// @Description  Authenticates credentials and opens a session, returning an access/refresh token pair.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials body LoginRequest true "Login Credentials"
// @Success      200 {object} LoginResponse "Token Pair"
// @Failure      401 {object} api.Response "Invalid Credentials"
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Login"))

	var req LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("body", err.Error(), "JSON object", nil))
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("email", "email is required", "non-empty string", req.Email))
		return
	}
	if req.Password == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("password", "password is required", "non-empty string", nil))
		return
	}

	resp, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, r, l, err, "Login failed")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, resp)
}

// RefreshSession godoc
// @Summary      Refresh Session
// @Description  Rotates a refresh token into a new access/refresh token pair. The old refresh token is consumed.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Refresh Token"
// @Success      200 {object} LoginResponse "New Token Pair"
// @Failure      401 {object} api.Response "Invalid or Expired Token"
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "RefreshSession"))

	var req RefreshRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("body", err.Error(), "JSON object", nil))
		return
	}
	if req.RefreshToken == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("refreshToken", "refresh token is required", "non-empty string", nil))
		return
	}

	resp, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		h.writeAuthError(w, r, l, err, "Refresh failed")
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, resp)
}

// Logout godoc
// @Summary      Logout
// @Description  Revokes the session owning the presented access token. Safe to repeat.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} api.Response "Logged Out"
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Logout"))

	token, ok := GetAccessTokenFromContext(ctx)
	if !ok {
		// Not behind middleware: fall back to the raw header.
		var err error
		token, err = BearerToken(r)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusUnauthorized,
				api.NewAuthError(api.CodeAuthError, err.Error()))
			return
		}
	}

	if err := h.AuthService.Logout(ctx, token); err != nil {
		l.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError,
			api.NewAuthError(api.CodeAuthError, "Logout failed"))
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

// ValidateToken godoc
// @Summary      Validate Token
// @Description  Checks the presented access token and returns the owning user when the session is still live.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} ValidateResponse "Validation Result"
// @Failure      401 {object} api.Response "Invalid or Expired Token"
// @Router       /auth/validate [get]
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "ValidateToken"))

	token, err := BearerToken(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusUnauthorized,
			api.NewAuthError(api.CodeAuthError, err.Error()))
		return
	}

	user, err := h.AuthService.ValidateToken(ctx, token)
	if err != nil {
		h.writeAuthError(w, r, l, err, "Token validation failed")
		return
	}

	summary := user.Summary()
	api.SuccessResponse(w, r, http.StatusOK, ValidateResponse{Valid: true, User: &summary})
}

// writeAuthError maps service errors onto the wire-level taxonomy without
// leaking internals.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, l *slog.Logger, err error, logMsg string) {
	ctx := r.Context()
	switch {
	case errors.Is(err, api.ErrUnauthenticated):
		l.WarnContext(ctx, logMsg, slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnauthorized,
			api.NewAuthError(api.CodeInvalidCredentials, "Invalid email or password"))
	case errors.Is(err, api.ErrTokenExpired):
		l.WarnContext(ctx, logMsg, slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnauthorized,
			api.NewAuthError(api.CodeTokenExpired, "Token has expired"))
	case errors.Is(err, ErrInvalidToken):
		l.WarnContext(ctx, logMsg, slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusUnauthorized,
			api.NewAuthError(api.CodeAuthError, "Invalid token"))
	case errors.Is(err, ErrTooManyAttempts):
		l.WarnContext(ctx, logMsg)
		api.ErrorResponse(w, r, http.StatusTooManyRequests,
			api.NewAuthError(api.CodeAuthError, "Too many failed login attempts, try again later"))
	default:
		l.ErrorContext(ctx, logMsg, slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError,
			api.NewAuthError(api.CodeAuthError, "Authentication failed"))
	}
}
