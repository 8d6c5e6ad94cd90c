package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	apperrors "github.com/duynguyendang/shaclreport/pkg/common/errors"
	"github.com/duynguyendang/shaclreport/pkg/meb"
	"github.com/duynguyendang/shaclreport/pkg/meb/store"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrDatasetNotFound  = fmt.Errorf("dataset %w", apperrors.ErrNotFound)
	ErrInvalidDatasetID = fmt.Errorf("dataset id: %w", apperrors.ErrInvalidInput)
)

const (
	DefaultMaxOpenStores = 10
	DatasetListTTL       = 1 * time.Minute
	metadataFile         = "metadata.json"
)

var datasetIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// DatasetMetadata describes one loaded document.
type DatasetMetadata struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Format    string    `json:"format"`
	Triples   int       `json:"triples"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemoryProfile defines the memory optimization strategy
type MemoryProfile string

const (
	MemoryProfileDefault MemoryProfile = "default"
	MemoryProfileLow     MemoryProfile = "low"
)

// Options tunes a StoreManager.
type Options struct {
	MaxOpenStores int
	Profile       MemoryProfile
	StoreProfile  string // Badger profile, see store.Profile*
	ReadOnly      bool
}

// StoreManager manages one MEBStore per dataset under a base directory.
type StoreManager struct {
	baseDir       string
	stores        *lru.Cache[string, *meb.MEBStore]
	mu            sync.RWMutex
	opts          Options
	cachedList    []DatasetMetadata
	lastListBuild time.Time
}

// NewStoreManager creates a new StoreManager. Stores evicted from the LRU are closed.
func NewStoreManager(baseDir string, opts Options) (*StoreManager, error) {
	if opts.MaxOpenStores <= 0 {
		opts.MaxOpenStores = DefaultMaxOpenStores
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	cache, err := lru.NewWithEvict[string, *meb.MEBStore](opts.MaxOpenStores, func(id string, s *meb.MEBStore) {
		if err := s.Close(); err != nil {
			slog.Error("failed to close evicted store", "dataset", id, "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	return &StoreManager{
		baseDir: baseDir,
		stores:  cache,
		opts:    opts,
	}, nil
}

func (sm *StoreManager) datasetDir(id string) (string, error) {
	if !datasetIDPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDatasetID, id)
	}
	return filepath.Join(sm.baseDir, id), nil
}

func (sm *StoreManager) storeConfig(dir string) *store.Config {
	cfg := store.DefaultConfig(dir)
	cfg.ReadOnly = sm.opts.ReadOnly
	if sm.opts.StoreProfile != "" {
		cfg.Profile = sm.opts.StoreProfile
	}
	if sm.opts.Profile == MemoryProfileLow {
		cfg.BlockCacheSize = 16 << 20
		cfg.IndexCacheSize = 16 << 20
		cfg.Profile = store.ProfileLowMem
	}
	return cfg
}

// GetStore retrieves a store by dataset ID, opening it if necessary.
func (sm *StoreManager) GetStore(id string) (*meb.MEBStore, error) {
	if s, ok := sm.stores.Get(id); ok {
		return s, nil
	}

	dir, err := sm.datasetDir(id)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	// Double-check under lock
	if s, ok := sm.stores.Get(id); ok {
		return s, nil
	}

	if _, err := os.Stat(filepath.Join(dir, metadataFile)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}

	s, err := meb.Open(dir, sm.storeConfig(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open store for dataset %s: %w", id, err)
	}
	sm.repairCount(id, dir, s)

	sm.stores.Add(id, s)
	return s, nil
}

// repairCount rebuilds the fact counter when it disagrees with the metadata.
// The counter is only persisted on close, so a crash leaves it stale.
func (sm *StoreManager) repairCount(id, dir string, s *meb.MEBStore) {
	if sm.opts.ReadOnly {
		return
	}
	meta, err := readMetadata(dir)
	if err != nil || uint64(meta.Triples) == s.Count() {
		return
	}
	n, err := s.RecalculateStats()
	if err != nil {
		slog.Warn("failed to recalculate fact count", "dataset", id, "error", err)
		return
	}
	slog.Warn("fact count repaired", "dataset", id, "expected", meta.Triples, "counted", n)
}

// CreateDataset allocates a new dataset directory and opens its store.
// An empty meta.ID is replaced with a fresh UUID.
func (sm *StoreManager) CreateDataset(meta DatasetMetadata) (DatasetMetadata, *meb.MEBStore, error) {
	if sm.opts.ReadOnly {
		return meta, nil, meb.ErrReadOnly
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now().UTC()
	}
	dir, err := sm.datasetDir(meta.ID)
	if err != nil {
		return meta, nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, err := os.Stat(dir); err == nil {
		return meta, nil, fmt.Errorf("%w: dataset %s already exists", apperrors.ErrConflict, meta.ID)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return meta, nil, fmt.Errorf("failed to create dataset dir: %w", err)
	}

	s, err := meb.Open(dir, sm.storeConfig(dir))
	if err != nil {
		os.RemoveAll(dir)
		return meta, nil, fmt.Errorf("failed to open store for dataset %s: %w", meta.ID, err)
	}
	if err := writeMetadata(dir, meta); err != nil {
		s.Close()
		os.RemoveAll(dir)
		return meta, nil, err
	}

	sm.stores.Add(meta.ID, s)
	sm.cachedList = nil
	slog.Info("dataset created", "dataset", meta.ID, "name", meta.Name)
	return meta, s, nil
}

// SaveMetadata rewrites a dataset's metadata file.
func (sm *StoreManager) SaveMetadata(meta DatasetMetadata) error {
	dir, err := sm.datasetDir(meta.ID)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, meta.ID)
	}
	if err := writeMetadata(dir, meta); err != nil {
		return err
	}
	sm.cachedList = nil
	return nil
}

// GetMetadata reads a dataset's metadata file.
func (sm *StoreManager) GetMetadata(id string) (DatasetMetadata, error) {
	dir, err := sm.datasetDir(id)
	if err != nil {
		return DatasetMetadata{}, err
	}
	meta, err := readMetadata(dir)
	if errors.Is(err, os.ErrNotExist) {
		return DatasetMetadata{}, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return meta, err
}

// DeleteDataset closes the dataset's store and removes its directory.
func (sm *StoreManager) DeleteDataset(id string) error {
	dir, err := sm.datasetDir(id)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	// Remove triggers the eviction callback, which closes the store.
	sm.stores.Remove(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove dataset %s: %w", id, err)
	}
	sm.cachedList = nil
	slog.Info("dataset deleted", "dataset", id)
	return nil
}

// ListDatasets returns the datasets under the base directory, newest first.
func (sm *StoreManager) ListDatasets() ([]DatasetMetadata, error) {
	sm.mu.RLock()
	if time.Since(sm.lastListBuild) < DatasetListTTL && sm.cachedList != nil {
		list := make([]DatasetMetadata, len(sm.cachedList))
		copy(list, sm.cachedList)
		sm.mu.RUnlock()
		return list, nil
	}
	sm.mu.RUnlock()

	sm.mu.Lock()
	defer sm.mu.Unlock()

	entries, err := os.ReadDir(sm.baseDir)
	if err != nil {
		return nil, err
	}

	datasets := make([]DatasetMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := readMetadata(filepath.Join(sm.baseDir, entry.Name()))
		if err != nil {
			// Not a dataset directory.
			continue
		}
		if meta.ID == "" {
			meta.ID = entry.Name()
		}
		datasets = append(datasets, meta)
	}
	sort.SliceStable(datasets, func(i, j int) bool {
		return datasets[i].CreatedAt.After(datasets[j].CreatedAt)
	})

	sm.cachedList = datasets
	sm.lastListBuild = time.Now()

	list := make([]DatasetMetadata, len(datasets))
	copy(list, datasets)
	return list, nil
}

// OpenCount returns the number of stores currently held open.
func (sm *StoreManager) OpenCount() int {
	return sm.stores.Len()
}

// CloseAll closes all open stores.
func (sm *StoreManager) CloseAll() {
	sm.stores.Purge()
}

func writeMetadata(dir string, meta DatasetMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset metadata: %w", err)
	}
	return nil
}

func readMetadata(dir string) (DatasetMetadata, error) {
	var meta DatasetMetadata
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse dataset metadata: %w", err)
	}
	return meta, nil
}
