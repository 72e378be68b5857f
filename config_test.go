package stardex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stardex-app/stardex/archive"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stardex.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/stardex-test
base_url: http://localhost:9999/api/v2
workers: 8
sprite_workers: 4
requests_per_second: 25.5
max_skip_fraction: 0.2
type_filter_mode: exclusive
per_page: 10
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stardex-test", cfg.DataDir)
	assert.Equal(t, "http://localhost:9999/api/v2", cfg.BaseURL)
	assert.Equal(t, int64(8), cfg.Workers)
	assert.Equal(t, int64(4), cfg.SpriteWorkers)
	assert.Equal(t, 25.5, cfg.RequestsPerSecond)
	assert.Equal(t, 0.2, cfg.MaxSkipFraction)
	assert.Equal(t, archive.TypeModeExclusive, cfg.TypeMode())
	assert.Equal(t, 10, cfg.PerPage)
}

func TestLoadConfigPartial(t *testing.T) {
	path := writeConfig(t, "workers: 2\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, int64(2), cfg.Workers)
	assert.Equal(t, DefaultConfig().PerPage, cfg.PerPage)
	assert.Equal(t, archive.TypeModeInclusive, cfg.TypeMode())
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"BadYAML", "workers: [not a number\n"},
		{"NegativeWorkers", "workers: -1\n"},
		{"SkipFractionOutOfRange", "max_skip_fraction: 1.5\n"},
		{"UnknownTypeMode", "type_filter_mode: sometimes\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestConfigApply(t *testing.T) {
	cfg := Config{
		BaseURL:           "http://example.test",
		Workers:           3,
		RequestsPerSecond: 10,
	}

	var o Options
	cfg.Apply(&o)

	assert.Equal(t, "http://example.test", o.BaseURL)
	assert.Equal(t, int64(3), o.Workers)
	assert.Equal(t, 10.0, o.RequestsPerSecond)
	assert.Zero(t, o.SpriteWorkers)
}

func TestDefaultDataDir(t *testing.T) {
	dir, err := DefaultDataDir()
	require.NoError(t, err)
	assert.Equal(t, "stardex", filepath.Base(dir))
}
