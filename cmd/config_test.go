package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsd-sim/gsd-go/gsd/fl"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	// GIVEN a config that sets some keys
	path := writeConfig(t, "codec: zstd\ncache_size: 0\nsync: true\n")

	// WHEN it is loaded
	c, err := loadConfig(path)
	require.NoError(t, err)

	// THEN set keys override and the rest keep their defaults
	assert.Equal(t, "zstd", c.Codec)
	assert.Equal(t, 0, c.CacheSize)
	assert.True(t, c.Sync)
	assert.Equal(t, fl.DefaultApplication, c.Application)
	assert.Equal(t, "history", c.Fallback)
	assert.Len(t, c.fileOptions(), 4)
}

func TestLoadConfig_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "codecs: zstd\n",
		"bad codec":      "codec: lz4\n",
		"bad fallback":   "fallback: sometimes\n",
		"negative cache": "cache_size: -1\n",
		"wrong type":     "sync: [1]\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "", "info", "x.gsd", "--log", "loud")
	assert.Error(t, err)
}
