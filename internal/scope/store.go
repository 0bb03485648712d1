package scope

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ ManagedArtists = (*Store)(nil)

func (s *Store) ArtistIDsByManager(ctx context.Context, managerID string) ([]string, error) {
	const q = `SELECT id FROM artists WHERE manager_id = $1 ORDER BY id`
	rows, err := s.pool.Query(ctx, q, managerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
