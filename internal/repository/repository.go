// Package repository defines the generic persistence contract implemented
// per entity by concrete Postgres adapters.
package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Filter is a partial-entity match used by FindMany. Keys are column
// names; adapters whitelist which keys they accept.
type Filter map[string]interface{}

// Repository is the generic CRUD contract, parameterized over the entity
// and key types. Entity-specific lookups live on extension interfaces in
// the owning feature package.
type Repository[T any, K comparable] interface {
	Create(ctx context.Context, entity T) (*T, error)
	FindByID(ctx context.Context, id K) (*T, error)
	FindMany(ctx context.Context, filter Filter) ([]T, error)
	Update(ctx context.Context, id K, entity T) (*T, error)
	Delete(ctx context.Context, id K) error
}

// PGXPool is the subset of *pgxpool.Pool the adapters use. pgxmock
// satisfies it too, which keeps repository tests off a live database.
type PGXPool interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}
