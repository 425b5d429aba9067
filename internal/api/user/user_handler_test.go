package user

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/api/auth"
	"github.com/FACorreiaa/go-user-auth/internal/types"
)

// MockUserService is a mock implementation of the UserService interface
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, req CreateUserRequest) (*types.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*types.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockUserService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) api.Response {
	t.Helper()
	var envelope api.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func authenticatedRequest(method, target string, body *bytes.Buffer, userID uuid.UUID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	return req.WithContext(ctx)
}

func TestHandlerImpl_Register(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, slog.Default())

		userID := uuid.New()
		mockService.On("Create", mock.Anything, CreateUserRequest{
			Email:    "test@example.com",
			Password: "password123",
		}).Return(&types.User{
			ID:        userID,
			Email:     "test@example.com",
			IsActive:  true,
			CreatedAt: time.Now(),
		}, nil).Once()

		body := bytes.NewBufferString(`{"email":"test@example.com","password":"password123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.True(t, envelope.Success)
		data := envelope.Data.(map[string]interface{})
		assert.Equal(t, userID.String(), data["id"])
		assert.Equal(t, "test@example.com", data["email"])
		mockService.AssertExpectations(t)
	})

	t.Run("ValidationError", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, slog.Default())

		mockService.On("Create", mock.Anything, mock.AnythingOfType("user.CreateUserRequest")).
			Return(nil, api.NewValidationError("password", "password must be at least 8 characters",
				"string with length >= 8", nil)).Once()

		body := bytes.NewBufferString(`{"email":"test@example.com","password":"short"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.False(t, envelope.Success)
		require.NotNil(t, envelope.Error)
		assert.Equal(t, api.CodeValidationError, envelope.Error.Code)
		assert.Equal(t, "password", envelope.Error.Field)
		mockService.AssertExpectations(t)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, slog.Default())

		body := bytes.NewBufferString(`{"email":`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users", body)
		rec := httptest.NewRecorder()

		handler.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "Create")
	})
}

func TestHandlerImpl_GetMe(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, slog.Default())

		userID := uuid.New()
		mockService.On("FindByID", mock.Anything, userID).
			Return(&types.User{ID: userID, Email: "test@example.com", IsActive: true}, nil).Once()

		req := authenticatedRequest(http.MethodGet, "/api/v1/users/me", nil, userID)
		rec := httptest.NewRecorder()

		handler.GetMe(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec)
		assert.True(t, envelope.Success)
		data := envelope.Data.(map[string]interface{})
		assert.Equal(t, "test@example.com", data["email"])
		// The password hash never serializes.
		assert.NotContains(t, rec.Body.String(), "password")
		mockService.AssertExpectations(t)
	})

	t.Run("Unauthenticated", func(t *testing.T) {
		mockService := new(MockUserService)
		handler := NewHandlerImpl(mockService, slog.Default())

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
		rec := httptest.NewRecorder()

		handler.GetMe(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		mockService.AssertNotCalled(t, "FindByID")
	})
}

func TestHandlerImpl_Deactivate(t *testing.T) {
	mockService := new(MockUserService)
	handler := NewHandlerImpl(mockService, slog.Default())

	userID := uuid.New()
	mockService.On("Deactivate", mock.Anything, userID).Return(nil).Once()

	req := authenticatedRequest(http.MethodPost, "/api/v1/users/me/deactivate", nil, userID)
	rec := httptest.NewRecorder()

	handler.Deactivate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeEnvelope(t, rec).Success)
	mockService.AssertExpectations(t)
}
