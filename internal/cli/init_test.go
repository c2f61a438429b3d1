package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINTRACK_TEST_VALUE=from-dotenv\n"), 0o600))
	t.Setenv("FINTRACK_TEST_VALUE", "")
	os.Unsetenv("FINTRACK_TEST_VALUE")

	LoadEnvFile(path)
	assert.Equal(t, "from-dotenv", os.Getenv("FINTRACK_TEST_VALUE"))

	// missing files are ignored
	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	v := config.NewViper()
	v.Set(config.KeySQLiteDBPath, filepath.Join(t.TempDir(), "fintrack.db"))
	cfg, err := LoadAndValidateConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)

	v.Set(config.KeyPort, "nope")
	_, err = LoadAndValidateConfig(v)
	assert.ErrorContains(t, err, "invalid port")
}

func TestOpenStoreSeeds(t *testing.T) {
	logger := SetupLogger("error", "text", io.Discard)
	cfg := &config.Config{
		SQLiteDBPath:          filepath.Join(t.TempDir(), "data", "fintrack.db"),
		SeedDefaultCategories: true,
	}

	store, err := OpenStore(context.Background(), logger, cfg)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.CountCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestOpenStoreWithoutSeed(t *testing.T) {
	logger := SetupLogger("error", "json", io.Discard)
	cfg := &config.Config{SQLiteDBPath: filepath.Join(t.TempDir(), "fintrack.db")}

	store, err := OpenStore(context.Background(), logger, cfg)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.CountCategories(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
