package user

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/types"
)

func newUserRepoMock(t *testing.T) (*PostgresUserRepo, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return NewPostgresUserRepo(mockPool, slog.Default()), mockPool
}

func TestPostgresUserRepo_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newUserRepoMock(t)

		user := types.User{
			Email:        "test@example.com",
			PasswordHash: "$2a$10$hash",
			IsActive:     true,
		}

		mockPool.ExpectExec("INSERT INTO users").
			WithArgs(pgxmock.AnyArg(), user.Email, user.PasswordHash, user.Name,
				user.IsActive, pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		created, err := repo.Create(ctx, user)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		repo, mockPool := newUserRepoMock(t)

		mockPool.ExpectExec("INSERT INTO users").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.Create(ctx, types.User{Email: "dup@example.com"})

		assert.ErrorIs(t, err, api.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresUserRepo_GetUserByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo, mockPool := newUserRepoMock(t)

		userID := uuid.New()
		now := time.Now()
		rows := pgxmock.NewRows([]string{"id", "email", "password_hash", "name", "is_active", "created_at", "updated_at"}).
			AddRow(userID, "test@example.com", "$2a$10$hash", (*string)(nil), true, now, now)

		mockPool.ExpectQuery("FROM users WHERE lower").
			WithArgs("Test@Example.com").
			WillReturnRows(rows)

		user, err := repo.GetUserByEmail(ctx, "Test@Example.com")

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "test@example.com", user.Email)
		assert.True(t, user.IsActive)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newUserRepoMock(t)

		mockPool.ExpectQuery("FROM users WHERE lower").
			WithArgs("missing@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetUserByEmail(ctx, "missing@example.com")

		assert.ErrorIs(t, err, api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}

func TestPostgresUserRepo_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo, mockPool := newUserRepoMock(t)

		userID := uuid.New()
		mockPool.ExpectExec("UPDATE users SET is_active").
			WithArgs(pgxmock.AnyArg(), userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Deactivate(ctx, userID))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mockPool := newUserRepoMock(t)

		userID := uuid.New()
		mockPool.ExpectExec("UPDATE users SET is_active").
			WithArgs(pgxmock.AnyArg(), userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		assert.ErrorIs(t, repo.Deactivate(ctx, userID), api.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
