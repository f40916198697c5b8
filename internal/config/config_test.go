package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// point at a missing file so a developer's real config cannot leak in
	t.Setenv("RENTLEDGER_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.80, cfg.Matching.Threshold)
	assert.Equal(t, 3, cfg.Matching.SplitWindowDays)
	assert.Equal(t, 0.90, cfg.Review.AutoAccept)
	assert.Equal(t, 0.70, cfg.Review.HighPriority)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Contains(t, cfg.Database.Path, "rentledger.db")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[database]
path = "/tmp/custom.db"

[matching]
threshold = 0.9
split_tolerance_dollars = 5.5

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("RENTLEDGER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	assert.Equal(t, 0.9, cfg.Matching.Threshold)
	assert.Equal(t, int64(550), cfg.Matching.SplitToleranceCents())
	assert.Equal(t, "debug", cfg.Logging.Level)
	// untouched keys keep their defaults
	assert.Equal(t, 0.90, cfg.Review.AutoAccept)
}

func TestSplitToleranceCentsExact(t *testing.T) {
	m := MatchingConfig{SplitToleranceDollars: 10.01}
	assert.Equal(t, int64(1001), m.SplitToleranceCents())
}
