package infra

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgres opens a pgx connection pool for the given DSN and verifies it
// with a ping. The pool is the single shared handle passed to every store.
func NewPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	// Pool sizing is left to pgxpool: ParseConfig defaults MaxConns to
	// max(4, NumCPU), and a pool_max_conns DSN parameter overrides it.
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// invalidTextRepresentation is the SQLSTATE Postgres raises when a text
// parameter fails a cast, typically a non-uuid string compared to a uuid
// column.
const invalidTextRepresentation = "22P02"

// InvalidUUID reports whether err is Postgres rejecting a malformed uuid
// parameter. Stores treat such ids the same as absent rows, so a garbage
// path id reads as not found rather than a server error.
func InvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation
}
