package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvDBPath, "")
	t.Setenv(EnvAddr, "")
	t.Setenv(EnvLogPath, "")

	cfg, err := Load([]string{"-env", noEnvFile(t)}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Empty(t, cfg.LogPath)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(EnvDBPath, "/var/lib/servis.db")
	t.Setenv(EnvAddr, "127.0.0.1:9000")
	t.Setenv(EnvLogPath, "")

	cfg, err := Load([]string{"-env", noEnvFile(t)}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/servis.db", cfg.DBPath)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestLoadFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv(EnvDBPath, "/env.db")
	t.Setenv(EnvAddr, ":1")

	cfg, err := Load([]string{"-env", noEnvFile(t), "-d", "flag.db", "-addr", ":2", "-l", "servis.log"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.DBPath)
	assert.Equal(t, ":2", cfg.Addr)
	assert.Equal(t, "servis.log", cfg.LogPath)
}

func TestLoadDotenvFile(t *testing.T) {
	// Set then unset so t.Setenv restores the original value afterwards;
	// godotenv only fills variables that are absent.
	t.Setenv(EnvDBPath, "")
	os.Unsetenv(EnvDBPath)
	t.Setenv(EnvAddr, ":7000")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVIS_DB=dotenv.db\nSERVIS_ADDR=:6000\n"), 0o600))

	cfg, err := Load([]string{"-env", path}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "dotenv.db", cfg.DBPath)
	assert.Equal(t, ":7000", cfg.Addr, "process environment wins over the file")
}

func TestLoadHelpAndStrayArguments(t *testing.T) {
	_, err := Load([]string{"-h"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))

	_, err = Load([]string{"-env", noEnvFile(t), "serve"}, io.Discard)
	assert.Error(t, err)
}
