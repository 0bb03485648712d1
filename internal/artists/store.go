package artists

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/infra"
	"github.com/sopatech/backstage/internal/pagination"
	"github.com/sopatech/backstage/internal/scope"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ ArtistStore = (*Store)(nil)

const artistColumns = `
	id, user_id, name, COALESCE(dob::text, ''), COALESCE(gender, ''), address,
	COALESCE(first_released_year, 0), no_of_album_released,
	COALESCE(manager_id::text, ''), created_at`

func scanArtist(row pgx.Row) (*Artist, error) {
	var a Artist
	err := row.Scan(
		&a.ID, &a.UserID, &a.Name, &a.DOB, &a.Gender, &a.Address,
		&a.FirstReleasedYear, &a.AlbumsReleased, &a.ManagerID, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || infra.InvalidUUID(err) {
			return nil, ErrArtistNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetInScope returns the artist only when it exists and is inside the scope.
// An out-of-scope id is indistinguishable from an absent one.
func (s *Store) GetInScope(ctx context.Context, id string, sc scope.Scope) (*Artist, error) {
	const q = `
SELECT ` + artistColumns + `
FROM artists
WHERE id = $1 AND ($2 OR id = ANY($3::uuid[]))`
	return scanArtist(s.pool.QueryRow(ctx, q, id, sc.Unrestricted, idsParam(sc)))
}

func (s *Store) List(ctx context.Context, sc scope.Scope, page pagination.Page) ([]Artist, int, error) {
	const countQ = `SELECT count(*) FROM artists WHERE $1 OR id = ANY($2::uuid[])`
	var total int
	if err := s.pool.QueryRow(ctx, countQ, sc.Unrestricted, idsParam(sc)).Scan(&total); err != nil {
		return nil, 0, err
	}

	// id tiebreak keeps the ordering stable under concurrent inserts of
	// equal names, so repeated pages never duplicate or skip rows.
	const q = `
SELECT ` + artistColumns + `
FROM artists
WHERE $1 OR id = ANY($2::uuid[])
ORDER BY name, id
LIMIT $3 OFFSET $4`
	limit, offset := page.LimitOffset()
	rows, err := s.pool.Query(ctx, q, sc.Unrestricted, idsParam(sc), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Artist
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

// ManagerExists checks that the profile exists and its backing user holds
// the manager role.
func (s *Store) ManagerExists(ctx context.Context, managerID string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1
	FROM user_profiles p
	JOIN users u ON u.id = p.user_id
	WHERE p.id = $1 AND u.role = $2
)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, managerID, string(identity.RoleManager)).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, email).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CreateWithUser inserts the backing user and the artist row in one
// transaction and fills in the generated ids and created_at.
func (s *Store) CreateWithUser(ctx context.Context, email, passwordHash string, a *Artist) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	userID := uuid.New().String()
	const userQ = `
INSERT INTO users (id, email, password_hash, role, is_active)
VALUES ($1, $2, $3, $4, TRUE)`
	if _, err := tx.Exec(ctx, userQ, userID, email, passwordHash, string(identity.RoleArtist)); err != nil {
		return err
	}

	a.ID = uuid.New().String()
	a.UserID = userID
	const artistQ = `
INSERT INTO artists (id, user_id, name, dob, gender, address, first_released_year, manager_id)
VALUES ($1, $2, $3, NULLIF($4, '')::date, NULLIF($5, ''), $6, NULLIF($7, 0), NULLIF($8, '')::uuid)
RETURNING created_at`
	if err := tx.QueryRow(ctx, artistQ,
		a.ID, a.UserID, a.Name, a.DOB, a.Gender, a.Address, a.FirstReleasedYear, a.ManagerID,
	).Scan(&a.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Update(ctx context.Context, a *Artist) error {
	const q = `
UPDATE artists
SET name = $2, dob = NULLIF($3, '')::date, gender = NULLIF($4, ''), address = $5,
    first_released_year = NULLIF($6, 0), manager_id = NULLIF($7, '')::uuid, updated_at = now()
WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, a.ID, a.Name, a.DOB, a.Gender, a.Address, a.FirstReleasedYear, a.ManagerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrArtistNotFound
	}
	return nil
}

// DeleteWithUser removes the artist and its backing user atomically; if
// either delete fails nothing is committed.
func (s *Store) DeleteWithUser(ctx context.Context, artistID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID string
	err = tx.QueryRow(ctx, `SELECT user_id FROM artists WHERE id = $1`, artistID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrArtistNotFound
		}
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM artists WHERE id = $1`, artistID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func idsParam(sc scope.Scope) []string {
	if sc.ArtistIDs == nil {
		return []string{}
	}
	return sc.ArtistIDs
}
