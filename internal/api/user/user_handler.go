package user

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/api/auth"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	GetMe(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	userService UserService
	logger      *slog.Logger
}

// NewHandlerImpl creates a new user HandlerImpl instance.
func NewHandlerImpl(userService UserService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		userService: userService,
		logger:      logger,
	}
}

// Register godoc
// @Summary      Register User
// @Description  Creates a new user account. The password is stored only as a hash.
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        user body CreateUserRequest true "Registration Parameters"
// @Success      201 {object} CreateUserResponse "Created User"
// @Failure      400 {object} api.Response "Validation Error"
// @Router       /users [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Register"))

	var req CreateUserRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("body", err.Error(), "JSON object", nil))
		return
	}

	created, err := h.userService.Create(ctx, req)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) {
			api.ErrorResponse(w, r, http.StatusBadRequest, apiErr)
			return
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError,
			api.NewAuthError(api.CodeAuthError, "Failed to create user"))
		return
	}

	api.SuccessResponse(w, r, http.StatusCreated, CreateUserResponse{
		ID:        created.ID,
		Email:     created.Email,
		Name:      created.Name,
		CreatedAt: created.CreatedAt,
	})
}

// GetMe godoc
// @Summary      Get Current User
// @Description  Returns the profile of the authenticated user.
// @Tags         User
// @Produce      json
// @Success      200 {object} types.User "User Profile"
// @Failure      401 {object} api.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *HandlerImpl) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "GetMe"))

	userID, ok := h.userIDFromContext(w, r)
	if !ok {
		return
	}

	user, err := h.userService.FindByID(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to get user", slog.Any("error", err))
		if errors.Is(err, api.ErrNotFound) {
			api.ErrorResponse(w, r, http.StatusNotFound,
				api.NewAuthError(api.CodeAuthError, "User not found"))
		} else {
			api.ErrorResponse(w, r, http.StatusInternalServerError,
				api.NewAuthError(api.CodeAuthError, "Failed to retrieve user"))
		}
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, user)
}

// Deactivate godoc
// @Summary      Deactivate Account
// @Description  Marks the authenticated user inactive and revokes all their sessions. Terminal.
// @Tags         User
// @Produce      json
// @Success      200 {object} api.Response "Deactivated"
// @Failure      401 {object} api.Response "Unauthorized"
// @Security     BearerAuth
// @Router       /users/me/deactivate [post]
func (h *HandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	l := h.logger.With(slog.String("handler", "Deactivate"))

	userID, ok := h.userIDFromContext(w, r)
	if !ok {
		return
	}

	if err := h.userService.Deactivate(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Failed to deactivate user", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError,
			api.NewAuthError(api.CodeAuthError, "Failed to deactivate user"))
		return
	}

	api.SuccessResponse(w, r, http.StatusOK, map[string]string{"message": "account deactivated"})
}

func (h *HandlerImpl) userIDFromContext(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := auth.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		api.ErrorResponse(w, r, http.StatusUnauthorized,
			api.NewAuthError(api.CodeAuthError, "Authentication required"))
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest,
			api.NewValidationError("userId", "invalid user ID format", "UUID", userIDStr))
		return uuid.Nil, false
	}
	return userID, true
}
