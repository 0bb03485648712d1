package metrics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MAUStore records user activity by month. One row per user per month; the
// primary key on (year_month, user_id) makes inserts idempotent.
type MAUStore struct {
	pool *pgxpool.Pool
}

func NewMAUStore(pool *pgxpool.Pool) *MAUStore {
	return &MAUStore{pool: pool}
}

// YearMonth returns the year-month of t in YYYY-MM format (UTC).
func YearMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// RecordActiveMonthIfNew inserts the MAU row only if it does not exist yet.
// Returns inserted=true if the row was new, false if it already existed (or
// userID is empty). Caller can use this to increment a counter once per user
// per month.
func (s *MAUStore) RecordActiveMonthIfNew(ctx context.Context, userID string) (inserted bool, err error) {
	if userID == "" {
		return false, nil
	}
	const q = `
INSERT INTO monthly_active_users (year_month, user_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`
	tag, err := s.pool.Exec(ctx, q, YearMonth(time.Now()), userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// CountForMonth returns the number of distinct users seen in the month.
func (s *MAUStore) CountForMonth(ctx context.Context, yearMonth string) (int, error) {
	const q = `SELECT count(*) FROM monthly_active_users WHERE year_month = $1`
	var n int
	err := s.pool.QueryRow(ctx, q, yearMonth).Scan(&n)
	return n, err
}
