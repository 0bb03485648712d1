package musics

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

var _ MusicStore = (*Store)(nil)

const musicColumns = `id, title, genre, COALESCE(album_id::text, ''), artist_id, created_at`

func scanMusic(row pgx.Row) (*Music, error) {
	var m Music
	err := row.Scan(&m.ID, &m.Title, &m.Genre, &m.AlbumID, &m.ArtistID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || infra.InvalidUUID(err) {
			return nil, ErrMusicNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *Store) GetInScope(ctx context.Context, id string, sc scope.Scope) (*Music, error) {
	const q = `
SELECT ` + musicColumns + `
FROM musics
WHERE id = $1 AND ($2 OR artist_id = ANY($3::uuid[]))`
	return scanMusic(s.pool.QueryRow(ctx, q, id, sc.Unrestricted, idsParam(sc)))
}

func (s *Store) List(ctx context.Context, sc scope.Scope, page pagination.Page) ([]Music, int, error) {
	const countQ = `SELECT count(*) FROM musics WHERE $1 OR artist_id = ANY($2::uuid[])`
	var total int
	if err := s.pool.QueryRow(ctx, countQ, sc.Unrestricted, idsParam(sc)).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT ` + musicColumns + `
FROM musics
WHERE $1 OR artist_id = ANY($2::uuid[])
ORDER BY title, id
LIMIT $3 OFFSET $4`
	limit, offset := page.LimitOffset()
	rows, err := s.pool.Query(ctx, q, sc.Unrestricted, idsParam(sc), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Music
	for rows.Next() {
		m, err := scanMusic(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *m)
	}
	return out, total, rows.Err()
}

func (s *Store) AlbumOwner(ctx context.Context, albumID string) (string, error) {
	const q = `SELECT owner_id FROM albums WHERE id = $1`
	var owner string
	err := s.pool.QueryRow(ctx, q, albumID).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || infra.InvalidUUID(err) {
			return "", ErrAlbumNotFound
		}
		return "", err
	}
	return owner, nil
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

// InTx runs fn in one transaction. The recount queries run after the insert
// or delete inside the same transaction, so concurrent writers serialize on
// the counter rows and the committed counts always match the rows.
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

func (t *pgTx) Insert(ctx context.Context, m *Music) error {
	m.ID = uuid.New().String()
	const q = `
INSERT INTO musics (id, title, genre, album_id, artist_id)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5)
RETURNING created_at`
	return t.tx.QueryRow(ctx, q, m.ID, m.Title, string(m.Genre), m.AlbumID, m.ArtistID).Scan(&m.CreatedAt)
}

func (t *pgTx) Update(ctx context.Context, m *Music) error {
	const q = `
UPDATE musics
SET title = $2, genre = $3, album_id = NULLIF($4, '')::uuid, artist_id = $5, updated_at = now()
WHERE id = $1`
	tag, err := t.tx.Exec(ctx, q, m.ID, m.Title, string(m.Genre), m.AlbumID, m.ArtistID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMusicNotFound
	}
	return nil
}

func (t *pgTx) Delete(ctx context.Context, id string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM musics WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMusicNotFound
	}
	return nil
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
