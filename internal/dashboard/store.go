package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sopatech/backstage/internal/identity"
	"github.com/sopatech/backstage/internal/scope"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ StatsStore = (*Store)(nil)

// Snapshot runs fn against a repeatable-read read-only transaction so every
// count inside one overview observes the same database state.
func (s *Store) Snapshot(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&statsTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type statsTx struct {
	tx pgx.Tx
}

func (t *statsTx) ManagerCounts(ctx context.Context, since time.Time) (Counts, error) {
	const q = `
SELECT count(*), count(*) FILTER (WHERE p.created_at >= $2)
FROM user_profiles p
JOIN users u ON u.id = p.user_id
WHERE u.role = $1`
	var c Counts
	err := t.tx.QueryRow(ctx, q, string(identity.RoleManager), since).Scan(&c.Total, &c.Recent)
	return c, err
}

func (t *statsTx) ArtistCounts(ctx context.Context, sc scope.Scope, since time.Time) (Counts, error) {
	const q = `
SELECT count(*), count(*) FILTER (WHERE created_at >= $3)
FROM artists
WHERE $1 OR id = ANY($2::uuid[])`
	var c Counts
	err := t.tx.QueryRow(ctx, q, sc.Unrestricted, idsParam(sc), since).Scan(&c.Total, &c.Recent)
	return c, err
}

func (t *statsTx) AlbumCounts(ctx context.Context, sc scope.Scope, since time.Time) (Counts, error) {
	const q = `
SELECT count(*), count(*) FILTER (WHERE created_at >= $3)
FROM albums
WHERE $1 OR owner_id = ANY($2::uuid[])`
	var c Counts
	err := t.tx.QueryRow(ctx, q, sc.Unrestricted, idsParam(sc), since).Scan(&c.Total, &c.Recent)
	return c, err
}

func (t *statsTx) MusicCounts(ctx context.Context, sc scope.Scope, since time.Time) (Counts, error) {
	const q = `
SELECT count(*), count(*) FILTER (WHERE created_at >= $3)
FROM musics
WHERE $1 OR artist_id = ANY($2::uuid[])`
	var c Counts
	err := t.tx.QueryRow(ctx, q, sc.Unrestricted, idsParam(sc), since).Scan(&c.Total, &c.Recent)
	return c, err
}

// TopArtists ranks scoped artists by released albums. DISTINCT keeps the
// two joins from inflating each other's counts.
func (s *Store) TopArtists(ctx context.Context, sc scope.Scope, limit int) ([]ArtistActivity, error) {
	const q = `
SELECT a.id, a.name, count(DISTINCT al.id), count(DISTINCT m.id)
FROM artists a
LEFT JOIN albums al ON al.owner_id = a.id
LEFT JOIN musics m ON m.artist_id = a.id
WHERE $1 OR a.id = ANY($2::uuid[])
GROUP BY a.id, a.name
ORDER BY count(DISTINCT al.id) DESC, a.name, a.id
LIMIT $3`
	rows, err := s.pool.Query(ctx, q, sc.Unrestricted, idsParam(sc), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ArtistActivity{}
	for rows.Next() {
		var a ArtistActivity
		if err := rows.Scan(&a.ArtistID, &a.Name, &a.Albums, &a.Musics); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GenreCounts(ctx context.Context, sc scope.Scope) ([]GenreCount, error) {
	const q = `
SELECT genre, count(*)
FROM musics
WHERE $1 OR artist_id = ANY($2::uuid[])
GROUP BY genre
ORDER BY genre`
	rows, err := s.pool.Query(ctx, q, sc.Unrestricted, idsParam(sc))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GenreCount{}
	for rows.Next() {
		var g GenreCount
		if err := rows.Scan(&g.Genre, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func idsParam(sc scope.Scope) []string {
	if sc.ArtistIDs == nil {
		return []string{}
	}
	return sc.ArtistIDs
}
