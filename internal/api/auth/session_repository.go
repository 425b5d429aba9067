package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-user-auth/app/observability/metrics"
	"github.com/FACorreiaa/go-user-auth/internal/api"
	"github.com/FACorreiaa/go-user-auth/internal/repository"
)

var _ SessionRepo = (*PostgresSessionRepo)(nil)

// SessionRepo persists session records. It extends the generic repository
// contract with token lookups and revocation.
type SessionRepo interface {
	repository.Repository[Session, uuid.UUID]

	// FindByToken retrieves a session by its access token, revoked or not.
	// Returns api.ErrNotFound when no such session exists.
	FindByToken(ctx context.Context, token string) (*Session, error)

	// FindByRefreshToken retrieves a session by its refresh token.
	FindByRefreshToken(ctx context.Context, refreshToken string) (*Session, error)

	// Rotate consumes oldRefreshToken exactly once and inserts next in the
	// same transaction. When two callers race on the same refresh token,
	// exactly one wins; the loser gets ErrInvalidToken.
	Rotate(ctx context.Context, oldRefreshToken string, next Session) (*Session, error)

	// Revoke marks a session revoked. Revoking an already-revoked or
	// nonexistent session is a no-op success, keeping logout idempotent.
	Revoke(ctx context.Context, sessionID uuid.UUID) error

	// RevokeAllForUser revokes every live session owned by the user.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

const sessionColumns = "id, user_id, token, refresh_token, expires_at, revoked_at, created_at"

type PostgresSessionRepo struct {
	logger *slog.Logger
	pgpool repository.PGXPool
}

func NewPostgresSessionRepo(pgpool repository.PGXPool, logger *slog.Logger) *PostgresSessionRepo {
	return &PostgresSessionRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

func scanSession(row pgx.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, fmt.Errorf("session scan failed: %w", err)
	}
	return &s, nil
}

func (r *PostgresSessionRepo) Create(ctx context.Context, session Session) (*Session, error) {
	ctx, span := otel.Tracer("SessionRepo").Start(ctx, "Create", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, token, refresh_token, expires_at, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		session.ID, session.UserID, session.Token, session.RefreshToken, session.ExpiresAt, session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("duplicate session token: %w", api.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}

	return &session, nil
}

func (r *PostgresSessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = $1", id)
	return scanSession(row)
}

func (r *PostgresSessionRepo) FindByToken(ctx context.Context, token string) (*Session, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE token = $1", token)
	return scanSession(row)
}

func (r *PostgresSessionRepo) FindByRefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
	row := r.pgpool.QueryRow(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE refresh_token = $1", refreshToken)
	return scanSession(row)
}

// sessionFilterColumns whitelists the filter keys FindMany accepts.
var sessionFilterColumns = map[string]struct{}{
	"user_id":       {},
	"token":         {},
	"refresh_token": {},
}

func (r *PostgresSessionRepo) FindMany(ctx context.Context, filter repository.Filter) ([]Session, error) {
	var whereClauses []string
	var args []interface{}
	argID := 1
	for col, val := range filter {
		if _, ok := sessionFilterColumns[col]; !ok {
			return nil, fmt.Errorf("unsupported session filter column %q", col)
		}
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", col, argID))
		args = append(args, val)
		argID++
	}

	query := "SELECT " + sessionColumns + " FROM sessions"
	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.Token, &s.RefreshToken, &s.ExpiresAt, &s.RevokedAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("session scan failed: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PostgresSessionRepo) Update(ctx context.Context, id uuid.UUID, session Session) (*Session, error) {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE sessions SET token = $1, refresh_token = $2, expires_at = $3, revoked_at = $4
         WHERE id = $5`,
		session.Token, session.RefreshToken, session.ExpiresAt, session.RevokedAt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, api.ErrNotFound
	}
	session.ID = id
	return &session, nil
}

func (r *PostgresSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx, "DELETE FROM sessions WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Rotate revokes the old row and inserts the replacement inside one
// transaction. The conditional UPDATE is the compare-and-swap: of N
// concurrent rotations with the same stale refresh token, exactly one
// sees RowsAffected == 1.
func (r *PostgresSessionRepo) Rotate(ctx context.Context, oldRefreshToken string, next Session) (*Session, error) {
	ctx, span := otel.Tracer("SessionRepo").Start(ctx, "Rotate", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "sessions"),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin rotation transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx,
		`UPDATE sessions SET revoked_at = $1
         WHERE refresh_token = $2 AND revoked_at IS NULL`,
		time.Now(), oldRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to consume refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Already consumed by a concurrent rotation, or never existed.
		return nil, fmt.Errorf("refresh token already consumed: %w", ErrInvalidToken)
	}

	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	if next.CreatedAt.IsZero() {
		next.CreatedAt = time.Now()
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, token, refresh_token, expires_at, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)`,
		next.ID, next.UserID, next.Token, next.RefreshToken, next.ExpiresAt, next.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert rotated session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	return &next, nil
}

func (r *PostgresSessionRepo) Revoke(ctx context.Context, sessionID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx,
		`UPDATE sessions SET revoked_at = $1
         WHERE id = $2 AND revoked_at IS NULL`,
		time.Now(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "Session already revoked or not found",
			slog.String("session_id", sessionID.String()))
	}
	return nil
}

func (r *PostgresSessionRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pgpool.Exec(ctx,
		`UPDATE sessions SET revoked_at = $1
         WHERE user_id = $2 AND revoked_at IS NULL`,
		time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	return nil
}
