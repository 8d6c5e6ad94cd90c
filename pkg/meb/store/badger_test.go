package store

import (
	"testing"

	"github.com/dgraph-io/badger/v4/options"
	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no data dir", func(c *Config) { c.DataDir = "" }, true},
		{"no data dir in memory", func(c *Config) { c.DataDir = ""; c.InMemory = true }, false},
		{"zero block cache", func(c *Config) { c.BlockCacheSize = 0 }, true},
		{"zero index cache", func(c *Config) { c.IndexCacheSize = 0 }, true},
		{"negative lru", func(c *Config) { c.LRUCacheSize = -1 }, true},
		{"unknown profile", func(c *Config) { c.Profile = "Turbo" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/tmp/x")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildBadgerOptions_Profiles(t *testing.T) {
	cfg := DefaultConfig("/tmp/x")
	cfg.Profile = ProfileLowMem
	opts := buildBadgerOptions(cfg, cfg.DataDir)
	assert.Equal(t, int64(32<<20), opts.ValueLogFileSize)
	assert.Equal(t, options.ZSTD, opts.Compression)

	cfg.Compression = false
	cfg.Profile = ProfileIngestHeavy
	opts = buildBadgerOptions(cfg, cfg.DataDir)
	assert.Equal(t, int64(1<<30), opts.ValueLogFileSize)
	assert.Equal(t, options.None, opts.Compression)
	assert.Equal(t, 4, opts.NumCompactors)
}

func TestBuildBadgerOptions_InMemory(t *testing.T) {
	opts := buildBadgerOptions(InMemoryConfig(), "")
	assert.True(t, opts.InMemory)
	assert.Empty(t, opts.Dir)
}
