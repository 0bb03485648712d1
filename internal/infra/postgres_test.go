package infra

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestInvalidUUID(t *testing.T) {
	badCast := &pgconn.PgError{
		Code:    "22P02",
		Message: `invalid input syntax for type uuid: "abc"`,
	}
	require.True(t, InvalidUUID(badCast))
	require.True(t, InvalidUUID(fmt.Errorf("query row: %w", badCast)), "matches through wrapping")

	require.False(t, InvalidUUID(nil))
	require.False(t, InvalidUUID(pgx.ErrNoRows))
	require.False(t, InvalidUUID(&pgconn.PgError{Code: "23505"}), "other SQLSTATEs pass through")
}
