package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store resolves token claims against the role-specific tables.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ Directory = (*Store)(nil)

func (s *Store) ActiveUserExists(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) ArtistIDByUser(ctx context.Context, userID string) (string, error) {
	const q = `SELECT id FROM artists WHERE user_id = $1`
	var id string
	err := s.pool.QueryRow(ctx, q, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

func (s *Store) ProfileIDByUser(ctx context.Context, userID string) (string, error) {
	const q = `SELECT id FROM user_profiles WHERE user_id = $1`
	var id string
	err := s.pool.QueryRow(ctx, q, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}
