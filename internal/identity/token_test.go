package identity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCodec_IssueAndDecode_Roundtrip(t *testing.T) {
	codec := NewCodec("test-secret", 15*time.Minute, 7*24*time.Hour)

	pair, err := codec.IssuePair("user-1", RoleManager)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)
	require.NotEqual(t, pair.Access, pair.Refresh)
	require.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)

	claims, err := codec.Decode(pair.Access)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, RoleManager, claims.Role)

	claims, err = codec.Decode(pair.Refresh)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
}

func TestCodec_Decode_Expired(t *testing.T) {
	codec := NewCodec("test-secret", -time.Minute, -time.Minute)

	pair, err := codec.IssuePair("user-1", RoleArtist)
	require.NoError(t, err)

	_, err = codec.Decode(pair.Access)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	codec := NewCodec("secret-a", time.Minute, time.Hour)
	other := NewCodec("secret-b", time.Minute, time.Hour)

	pair, err := codec.IssuePair("user-1", RoleSuperAdmin)
	require.NoError(t, err)

	_, err = other.Decode(pair.Access)
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_Decode_Garbage(t *testing.T) {
	codec := NewCodec("test-secret", time.Minute, time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := codec.Decode(token)
		require.ErrorIs(t, err, ErrTokenMalformed, "token %q", token)
	}
}
