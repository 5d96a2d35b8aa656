package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "inventario.sqlite3", cfg.DB.Path)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "admin", cfg.Auth.AdminUser)
	assert.Equal(t, 50, cfg.Scan.DefaultReadingsLimit)
	assert.False(t, cfg.Production())
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INVENTARIO_DB_PATH", "from-env.sqlite3")
	t.Setenv("INVENTARIO_HTTP_ADDR", ":9000")

	fs := Flags("test")
	require.NoError(t, fs.Parse([]string{"--db", "from-flag.sqlite3", "-u", "jefe"}))

	cfg, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, "from-flag.sqlite3", cfg.DB.Path)
	assert.Equal(t, ":9000", cfg.HTTP.Addr)
	assert.Equal(t, "jefe", cfg.Auth.AdminUser)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  token_ttl: 2h\nscan:\n  default_limit: 20\n"), 0644))

	fs := Flags("test")
	require.NoError(t, fs.Parse([]string{"--config", path}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 20, cfg.Scan.DefaultReadingsLimit)
}

func TestLoadRejectsInvalidTTL(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("INVENTARIO_AUTH_TOKEN_TTL", "-1h")

	_, err := Load(nil)
	assert.Error(t, err)
}

// chdir switches the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
