package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sopatech/backstage/internal/identity"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ UserStore = (*Store)(nil)

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CreateWithProfile inserts the user and its role-specific row in one
// transaction. Every artist has an artists row and every manager a
// user_profiles row from the moment the account exists.
func (s *Store) CreateWithProfile(ctx context.Context, u *User, passwordHash string, in RegisterInput) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	u.ID = uuid.New().String()
	const userQ = `
INSERT INTO users (id, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, TRUE)
RETURNING created_at`
	if err := tx.QueryRow(ctx, userQ, u.ID, u.Email, passwordHash, string(u.Role)).Scan(&u.CreatedAt); err != nil {
		return err
	}

	switch u.Role {
	case identity.RoleArtist:
		const q = `
INSERT INTO artists (id, user_id, name, dob, gender, address)
VALUES ($1, $2, $3, NULLIF($4, '')::date, NULLIF($5, ''), $6)`
		name := displayName(in.FirstName, in.LastName)
		if _, err := tx.Exec(ctx, q, uuid.New().String(), u.ID, name, in.DOB, in.Gender, in.Address); err != nil {
			return err
		}
	case identity.RoleManager:
		const q = `
INSERT INTO user_profiles (id, user_id, first_name, last_name, phone, dob, gender, address)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, NULLIF($7, ''), $8)`
		if _, err := tx.Exec(ctx, q,
			uuid.New().String(), u.ID, in.FirstName, in.LastName, in.Phone, in.DOB, in.Gender, in.Address,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ByEmail returns the user and its password hash.
func (s *Store) ByEmail(ctx context.Context, email string) (*User, string, error) {
	const q = `
SELECT id, email, password_hash, role, is_active, created_at
FROM users
WHERE email = $1`
	var (
		u    User
		hash string
	)
	err := s.pool.QueryRow(ctx, q, email).Scan(&u.ID, &u.Email, &hash, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", ErrUserNotFound
		}
		return nil, "", err
	}
	return &u, hash, nil
}

func (s *Store) Active(ctx context.Context, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND is_active)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	const q = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, userID, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func displayName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
