package store

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Resource profiles understood by buildBadgerOptions.
const (
	ProfileIngestHeavy = "Ingest-Heavy"
	ProfileSafeServing = "Safe-Serving"
	ProfileLowMem      = "Cloud-Run-LowMem"
)

// Config holds the configuration for BadgerDB.
type Config struct {
	// DataDir is the directory where BadgerDB will store its data.
	DataDir string `yaml:"data_dir"`

	// DictDir is the directory where the Dictionary BadgerDB will store its data.
	DictDir string `yaml:"dict_dir"`

	// InMemory enables in-memory mode (useful for testing).
	InMemory bool `yaml:"in_memory"`

	// BlockCacheSize is the size of the block cache in bytes.
	BlockCacheSize int64 `yaml:"block_cache_size"`

	// IndexCacheSize is the size of the index cache in bytes.
	IndexCacheSize int64 `yaml:"index_cache_size"`

	// LRUCacheSize is the size of the dictionary LRU cache.
	LRUCacheSize int `yaml:"lru_cache_size"`

	// Compression enables ZSTD compression.
	Compression bool `yaml:"compression"`

	// SyncWrites enables synchronous writes.
	SyncWrites bool `yaml:"sync_writes"`

	// MemTableSize is the size of the memtable in bytes. Zero keeps Badger's default.
	MemTableSize int64 `yaml:"mem_table_size"`

	// NumMemtables caps memtables waiting to be flushed. Zero keeps Badger's default.
	NumMemtables int `yaml:"num_memtables"`

	// Profile specifies the resource profile. Defaults to Safe-Serving.
	Profile string `yaml:"profile"`

	// ReadOnly enables read-only mode.
	ReadOnly bool `yaml:"read_only"`

	// BypassLockGuard allows bypassing the directory lock guard.
	BypassLockGuard bool `yaml:"bypass_lock_guard"`
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.DataDir == "" && !c.InMemory {
		return fmt.Errorf("DataDir must be specified when InMemory is false")
	}
	if c.BlockCacheSize <= 0 {
		return fmt.Errorf("BlockCacheSize must be positive, got %d", c.BlockCacheSize)
	}
	if c.IndexCacheSize <= 0 {
		return fmt.Errorf("IndexCacheSize must be positive, got %d", c.IndexCacheSize)
	}
	if c.LRUCacheSize < 0 {
		return fmt.Errorf("LRUCacheSize must be non-negative, got %d", c.LRUCacheSize)
	}
	switch c.Profile {
	case "", ProfileIngestHeavy, ProfileSafeServing, ProfileLowMem:
	default:
		return fmt.Errorf("unknown profile %q", c.Profile)
	}
	return nil
}

// DefaultConfig returns a configuration sized for validation reports, which
// are small compared to the code graphs this store was tuned for.
func DefaultConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		DictDir:        filepath.Join(dataDir, "dict"),
		BlockCacheSize: 64 << 20,
		IndexCacheSize: 32 << 20,
		LRUCacheSize:   100000,
		Compression:    true,
		Profile:        ProfileSafeServing,
	}
}

// InMemoryConfig returns a configuration that never touches disk.
func InMemoryConfig() *Config {
	return &Config{
		InMemory:       true,
		BlockCacheSize: 16 << 20,
		IndexCacheSize: 16 << 20,
		LRUCacheSize:   10000,
	}
}

// buildBadgerOptions converts Config to badger.Options based on Profile.
func buildBadgerOptions(cfg *Config, dir string) badger.Options {
	if cfg.InMemory {
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(slogAdapter{})
	}

	opts := badger.DefaultOptions(filepath.Join(dir, "badger"))
	opts.Logger = slogAdapter{}

	// Indices are maintained together at the app layer.
	opts.DetectConflicts = false
	opts.BypassLockGuard = cfg.BypassLockGuard
	opts.BloomFalsePositive = 0.01
	opts.ReadOnly = cfg.ReadOnly

	if cfg.Compression {
		opts.Compression = options.ZSTD
	} else {
		opts.Compression = options.None
	}

	switch cfg.Profile {
	case ProfileLowMem:
		opts.ValueLogFileSize = 32 << 20
		opts.NumCompactors = 2
	case ProfileIngestHeavy:
		opts.ValueLogFileSize = 1 << 30
		opts.NumCompactors = 4
	default:
		// Badger v4 requires at least 2 compactors.
		opts.ValueLogFileSize = 64 << 20
		opts.NumCompactors = 2
	}

	opts.BlockCacheSize = cfg.BlockCacheSize
	opts.IndexCacheSize = cfg.IndexCacheSize
	opts.SyncWrites = cfg.SyncWrites

	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}

	return opts
}

// OpenBadgerDB opens the facts database described by cfg.
func OpenBadgerDB(cfg *Config) (*badger.DB, error) {
	return badger.Open(buildBadgerOptions(cfg, cfg.DataDir))
}

// OpenDictDB opens the dictionary database. Dictionary writes are always synced.
func OpenDictDB(cfg *Config) (*badger.DB, error) {
	dir := cfg.DictDir
	if dir == "" {
		dir = filepath.Join(cfg.DataDir, "dict")
	}
	opts := buildBadgerOptions(cfg, dir)
	if !cfg.InMemory {
		opts.SyncWrites = true
	}
	return badger.Open(opts)
}

// slogAdapter routes Badger's internal logging to slog.
type slogAdapter struct{}

func (slogAdapter) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (slogAdapter) Warningf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (slogAdapter) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (slogAdapter) Debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
