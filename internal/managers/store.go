package managers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/infra"
	"github.com/sopatech/backstage/internal/pagination"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ ManagerStore = (*Store)(nil)

const managerColumns = `
	p.id, p.user_id, u.email, p.first_name, p.last_name, p.phone,
	COALESCE(p.dob::text, ''), COALESCE(p.gender, ''), p.address, p.created_at`

func scanManager(row pgx.Row) (*Manager, error) {
	var m Manager
	err := row.Scan(
		&m.ID, &m.UserID, &m.Email, &m.FirstName, &m.LastName, &m.Phone,
		&m.DOB, &m.Gender, &m.Address, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || infra.InvalidUUID(err) {
			return nil, ErrManagerNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Manager, error) {
	const q = `
SELECT ` + managerColumns + `
FROM user_profiles p
JOIN users u ON u.id = p.user_id
WHERE p.id = $1`
	return scanManager(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) List(ctx context.Context, page pagination.Page) ([]Manager, int, error) {
	const countQ = `SELECT count(*) FROM user_profiles`
	var total int
	if err := s.pool.QueryRow(ctx, countQ).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT ` + managerColumns + `
FROM user_profiles p
JOIN users u ON u.id = p.user_id
ORDER BY p.first_name, p.last_name, p.id
LIMIT $1 OFFSET $2`
	limit, offset := page.LimitOffset()
	rows, err := s.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Manager
	for rows.Next() {
		m, err := scanManager(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) CreateWithUser(ctx context.Context, email, passwordHash string, m *Manager) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	userID := uuid.New().String()
	const userQ = `
INSERT INTO users (id, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, TRUE)`
	if _, err := tx.Exec(ctx, userQ, userID, email, passwordHash, string(identity.RoleManager)); err != nil {
		return err
	}

	m.ID = uuid.New().String()
	m.UserID = userID
	const profileQ = `
INSERT INTO user_profiles (id, user_id, first_name, last_name, phone, dob, gender, address)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::date, NULLIF($7, ''), $8)
RETURNING created_at`
	if err := tx.QueryRow(ctx, profileQ,
		m.ID, m.UserID, m.FirstName, m.LastName, m.Phone, m.DOB, m.Gender, m.Address,
	).Scan(&m.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, m *Manager) error {
	const q = `
UPDATE user_profiles
SET first_name = $2, last_name = $3, phone = $4, dob = NULLIF($5, '')::date,
    gender = NULLIF($6, ''), address = $7, updated_at = now()
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, m.ID, m.FirstName, m.LastName, m.Phone, m.DOB, m.Gender, m.Address)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrManagerNotFound
	}
	return nil
}

// DeleteWithUser removes the profile and its backing user in one
// transaction; nothing commits if either delete fails.
func (s *Store) DeleteWithUser(ctx context.Context, managerID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `SELECT user_id FROM user_profiles WHERE id = $1`, managerID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrManagerNotFound
		}
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM user_profiles WHERE id = $1`, managerID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
