package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-botlist-server/internal/config"
	"github.com/stretchr/testify/require"
)

var secret32 = strings.Repeat("a", config.SecretLength)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", secret32)
	t.Setenv("JWT_REFRESH_SECRET_KEY", strings.Repeat("b", config.SecretLength))
	t.Setenv("JWT_APIKEY_SECRET_KEY", strings.Repeat("c", config.SecretLength))
	t.Setenv("DISCORD_CLIENT_ID", "client")
	t.Setenv("DISCORD_CLIENT_SECRET", "secret")
	t.Setenv("DISCORD_REDIRECT_URI", "http://localhost/callback")
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		setValidEnv(t)
		require.NoError(t, config.New().Validate())
	})

	t.Run("short secret", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("JWT_REFRESH_SECRET_KEY", "too-short")
		err := config.New().Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "JWT_REFRESH_SECRET_KEY")
	})

	t.Run("missing discord redirect", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("DISCORD_REDIRECT_URI", "")
		err := config.New().Validate()
		require.Error(t, err)
		require.Contains(t, err.Error(), "DISCORD_REDIRECT_URI")
	})

	t.Run("unknown driver", func(t *testing.T) {
		setValidEnv(t)
		t.Setenv("DATABASE_DRIVER", "mysql")
		require.Error(t, config.New().Validate())
	})
}

func TestDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("HASH_COST", "")
	t.Setenv("DATABASE_DRIVER", "")

	c := config.New()
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, 10, c.GetHashCost())
	require.Equal(t, config.DriverSQLite, c.GetDatabaseDriver())
	require.Equal(t, "https://discord.com/api", c.GetDiscordAPIBaseURL())
}

func TestLoadFileOverlay(t *testing.T) {
	setValidEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("DISCORD_CLIENT_ID", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte("PORT: \"9090\"\nDISCORD_CLIENT_ID: from-file\nJWT_SECRET_KEY: ignored\n"), 0o600)
	require.NoError(t, err)

	c, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, "from-file", c.GetDiscordClientID())
	require.Equal(t, secret32, c.GetAccessSecret(), "environment wins over file")
	require.NoError(t, c.Validate())
}

func TestAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")
	origins := config.New().GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://a.example"))
	require.True(t, origins.IsAllowedOrigin("https://b.example"))
	require.False(t, origins.IsAllowedOrigin("https://c.example"))
}
