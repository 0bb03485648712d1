package albums

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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

var _ AlbumStore = (*Store)(nil)

const albumColumns = `id, name, image_path, no_of_tracks, owner_id, created_at`

func scanAlbum(row pgx.Row) (*Album, error) {
	var a Album
	err := row.Scan(&a.ID, &a.Name, &a.ImagePath, &a.Tracks, &a.OwnerID, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || infra.InvalidUUID(err) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetInScope(ctx context.Context, id string, sc scope.Scope) (*Album, error) {
	const q = `
SELECT ` + albumColumns + `
FROM albums
WHERE id = $1 AND ($2 OR owner_id = ANY($3::uuid[]))`
	return scanAlbum(s.pool.QueryRow(ctx, q, id, sc.Unrestricted, idsParam(sc)))
}

func (s *Store) List(ctx context.Context, sc scope.Scope, page pagination.Page) ([]Album, int, error) {
	const countQ = `SELECT count(*) FROM albums WHERE $1 OR owner_id = ANY($2::uuid[])`
	var total int
	if err := s.pool.QueryRow(ctx, countQ, sc.Unrestricted, idsParam(sc)).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT ` + albumColumns + `
FROM albums
WHERE $1 OR owner_id = ANY($2::uuid[])
ORDER BY name, id
LIMIT $3 OFFSET $4`
	limit, offset := page.LimitOffset()
	rows, err := s.pool.Query(ctx, q, sc.Unrestricted, idsParam(sc), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Album
	for rows.Next() {
		a, err := scanAlbum(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (s *Store) ArtistExists(ctx context.Context, artistID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM artists WHERE id = $1)`
	var ok bool
	if err := s.pool.QueryRow(ctx, q, artistID).Scan(&ok); err != nil {
		if infra.InvalidUUID(err) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// InTx runs fn inside one database transaction; any error rolls everything
// back so the derived counters can never drift from the rows.
func (s *Store) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct {
	tx pgx.Tx
}

var _ Tx = (*pgTx)(nil)

func (t *pgTx) Insert(ctx context.Context, a *Album) error {
	a.ID = uuid.New().String()
	const q = `
INSERT INTO albums (id, name, image_path, owner_id)
VALUES ($1, $2, $3, $4)
RETURNING created_at`
	return t.tx.QueryRow(ctx, q, a.ID, a.Name, a.ImagePath, a.OwnerID).Scan(&a.CreatedAt)
}

func (t *pgTx) Update(ctx context.Context, a *Album) error {
	const q = `
UPDATE albums
SET name = $2, image_path = $3, owner_id = $4, updated_at = now()
WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, a.ID, a.Name, a.ImagePath, a.OwnerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM albums WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlbumNotFound
	}
	return nil
}

func (t *pgTx) ReassignTracks(ctx context.Context, albumID, artistID string) error {
	const q = `UPDATE musics SET artist_id = $2, updated_at = now() WHERE album_id = $1`
	_, err := t.tx.Exec(ctx, q, albumID, artistID)
	return err
}

func (t *pgTx) CountTracks(ctx context.Context, albumID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT count(*) FROM musics WHERE album_id = $1`, albumID).Scan(&n)
	return n, err
}

func (t *pgTx) SetAlbumTrackCount(ctx context.Context, albumID string, n int) error {
	_, err := t.tx.Exec(ctx, `UPDATE albums SET no_of_tracks = $2, updated_at = now() WHERE id = $1`, albumID, n)
	return err
}

func (t *pgTx) CountAlbums(ctx context.Context, artistID string) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT count(*) FROM albums WHERE owner_id = $1`, artistID).Scan(&n)
	return n, err
}

func (t *pgTx) SetArtistAlbumCount(ctx context.Context, artistID string, n int) error {
	_, err := t.tx.Exec(ctx, `UPDATE artists SET no_of_album_released = $2, updated_at = now() WHERE id = $1`, artistID, n)
	return err
}

func idsParam(sc scope.Scope) []string {
	if sc.ArtistIDs == nil {
		return []string{}
	}
	return sc.ArtistIDs
}
