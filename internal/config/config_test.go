package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/backstage_test")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Addr)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 168*time.Hour, cfg.RefreshTTL)
	require.Equal(t, 15*time.Minute, cfg.RecentWindow)
	require.Equal(t, 5, cfg.TopArtistsAdmin)
	require.Equal(t, 4, cfg.TopArtistsManager)
}

func TestLoad_MissingRequired(t *testing.T) {
	// t.Setenv registers restore; the unset makes the var truly absent.
	t.Setenv("DATABASE_URL", "x")
	t.Setenv("JWT_SECRET", "x")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("JWT_SECRET")

	_, err := Load()
	require.Error(t, err)
}

func TestObfuscateStr(t *testing.T) {
	require.Equal(t, "**", ObfuscateStr("ab"))
	require.Equal(t, "s****t", ObfuscateStr("secret"))
	require.Equal(t, "supe****cret", ObfuscateStr("super-secret"))
}
