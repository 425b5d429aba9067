package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/types"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResponse), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LoginResponse), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockAuthService) ValidateToken(ctx context.Context, token string) (*types.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Response {
	t.Helper()
	var envelope api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func TestAuthHandler_Login(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		userID := uuid.New()
		mockService.On("Login", mock.Anything, "test@example.com", "password123").
			Return(&LoginResponse{
				Token:        "access-token",
				RefreshToken: "refresh-token",
				User:         types.UserSummary{ID: userID, Email: "test@example.com"},
				ExpiresIn:    900,
			}, nil).Once()

		body := bytes.NewBufferString(`{"email":"test@example.com","password":"password123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.True(t, envelope.Success)
		assert.Nil(t, envelope.Error)
		require.NotNil(t, envelope.Meta)
		assert.NotEmpty(t, envelope.Meta.Timestamp)

		data := envelope.Data.(map[string]interface{})
		assert.Equal(t, "access-token", data["token"])
		assert.Equal(t, "refresh-token", data["refreshToken"])
		assert.Equal(t, float64(900), data["expiresIn"])
		mockService.AssertExpectations(t)
	})

	t.Run("MissingEmail", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		body := bytes.NewBufferString(`{"email":"","password":"password123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.False(t, envelope.Success)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, api.CodeValidationError, envelope.Error.Code)
		assert.Equal(t, "email", envelope.Error.Field)
		mockService.AssertNotCalled(t, "Login")
	})

	t.Run("InvalidCredentials", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		mockService.On("Login", mock.Anything, "test@example.com", "wrong").
			Return(nil, api.ErrUnauthenticated).Once()

		body := bytes.NewBufferString(`{"email":"test@example.com","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.False(t, envelope.Success)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, api.CodeInvalidCredentials, envelope.Error.Code)
		assert.Equal(t, "Invalid email or password", envelope.Error.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("TooManyAttempts", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		mockService.On("Login", mock.Anything, "test@example.com", "wrong").
			Return(nil, ErrTooManyAttempts).Once()

		body := bytes.NewBufferString(`{"email":"test@example.com","password":"wrong"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		rec := httptest.NewRecorder()

		handler.Login(rec, req)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestAuthHandler_RefreshSession(t *testing.T) {
	t.Run("ExpiredSession", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		mockService.On("Refresh", mock.Anything, "stale-token").
			Return(nil, api.ErrTokenExpired).Once()

		body := bytes.NewBufferString(`{"refreshToken":"stale-token"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", body)
		rec := httptest.NewRecorder()

		handler.RefreshSession(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, api.CodeTokenExpired, envelope.Error.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("ConsumedToken", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		mockService.On("Refresh", mock.Anything, "consumed-token").
			Return(nil, ErrInvalidToken).Once()

		body := bytes.NewBufferString(`{"refreshToken":"consumed-token"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", body)
		rec := httptest.NewRecorder()

		handler.RefreshSession(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, api.CodeAuthError, envelope.Error.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingToken", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		body := bytes.NewBufferString(`{"refreshToken":""}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", body)
		rec := httptest.NewRecorder()

		handler.RefreshSession(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Refresh")
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		mockService.On("Logout", mock.Anything, "access-token").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		rec := httptest.NewRecorder()

		handler.Logout(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeEnvelope(t, rec).Success)
		mockService.AssertExpectations(t)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
		rec := httptest.NewRecorder()

		handler.Logout(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockService.AssertNotCalled(t, "Logout")
	})
}

func TestAuthHandler_ValidateToken(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		user := &types.User{ID: uuid.New(), Email: "test@example.com", IsActive: true}
		mockService.On("ValidateToken", mock.Anything, "access-token").Return(user, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/validate", nil)
		req.Header.Set("Authorization", "Bearer access-token")
		rec := httptest.NewRecorder()

		handler.ValidateToken(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.True(t, envelope.Success)
		data := envelope.Data.(map[string]interface{})
		assert.Equal(t, true, data["valid"])
		mockService.AssertExpectations(t)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		mockService := new(MockAuthService)
		handler := NewAuthHandler(mockService, slog.Default())

		mockService.On("ValidateToken", mock.Anything, "stale").
			Return(nil, api.ErrTokenExpired).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/validate", nil)
		req.Header.Set("Authorization", "Bearer stale")
		rec := httptest.NewRecorder()

		handler.ValidateToken(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, api.CodeTokenExpired, envelope.Error.Code)
		mockService.AssertExpectations(t)
	})
}
