// Package meb implements a compact triple store on BadgerDB with dictionary
// encoding. Every triple is written to three indices (SPO, OPS, PSO) so any
// single bound position can be answered with a prefix scan.
//
// Example usage:
//
//	s, err := meb.Open("./data/ds1", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	s.AddFact(meb.NewFact("<urn:a>", "<urn:p>", "\"x\""))
//
//	for f, err := range s.Scan("<urn:a>", "", "") {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(f)
//	}
package meb

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/shaclreport/pkg/meb/dict"
	"github.com/duynguyendang/shaclreport/pkg/meb/keys"
	"github.com/duynguyendang/shaclreport/pkg/meb/store"
)

// MEBStore is a persistent triple store. It is safe for concurrent use.
type MEBStore struct {
	db     *badger.DB
	dictDB *badger.DB // Separate DB for dictionary
	dict   dict.Dictionary

	config *store.Config

	// mu serialises writers so the existence check and the fact counter
	// stay consistent with the indices.
	mu sync.Mutex

	// numFacts is persisted to disk only on graceful shutdown.
	numFacts atomic.Uint64
}

// Open opens the store of one dataset directory. A nil cfg uses
// store.DefaultConfig; otherwise cfg is copied and its empty directories
// default to path and path/dict.
func Open(path string, cfg *store.Config) (*MEBStore, error) {
	if cfg == nil {
		return NewMEBStore(store.DefaultConfig(path))
	}
	c := *cfg
	if c.DataDir == "" {
		c.DataDir = path
	}
	if c.DictDir == "" {
		c.DictDir = filepath.Join(c.DataDir, "dict")
	}
	return NewMEBStore(&c)
}

// NewMEBStore creates a new MEBStore with the given configuration.
func NewMEBStore(cfg *store.Config) (*MEBStore, error) {
	slog.Info("initializing MEB store",
		"dataDir", cfg.DataDir,
		"inMemory", cfg.InMemory,
		"blockCacheSize", cfg.BlockCacheSize,
		"indexCacheSize", cfg.IndexCacheSize,
	)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := store.OpenBadgerDB(cfg)
	if err != nil {
		slog.Error("failed to open BadgerDB", "error", err)
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	dictDB, err := store.OpenDictDB(cfg)
	if err != nil {
		db.Close()
		slog.Error("failed to open Dictionary BadgerDB", "error", err)
		return nil, fmt.Errorf("failed to open Dictionary BadgerDB: %w", err)
	}

	encoder, err := dict.NewEncoder(dictDB, cfg.LRUCacheSize)
	if err != nil {
		dictDB.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create dictionary encoder: %w", err)
	}

	m := &MEBStore{
		db:     db,
		dictDB: dictDB,
		dict:   encoder,
		config: cfg,
	}

	if err := m.loadStats(); err != nil {
		dictDB.Close()
		db.Close()
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	slog.Info("MEB store initialized", "factCount", m.numFacts.Load())
	return m, nil
}

// loadStats reads the counter from disk into RAM.
func (m *MEBStore) loadStats() error {
	return m.withReadTxn(func(txn *badger.Txn) error {
		item, err := txn.Get(keys.KeyFactCount)
		if errors.Is(err, badger.ErrKeyNotFound) {
			m.numFacts.Store(0)
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			if len(val) >= 8 {
				m.numFacts.Store(binary.BigEndian.Uint64(val))
			}
			return nil
		})
	})
}

// saveStats writes the RAM counter to disk.
func (m *MEBStore) saveStats() error {
	if m.config.ReadOnly {
		return nil
	}
	return m.withWriteTxn(func(txn *badger.Txn) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, m.numFacts.Load())
		return txn.Set(keys.KeyFactCount, buf)
	})
}

// SetMetadata writes a metadata pair to the store.
func (m *MEBStore) SetMetadata(key, value string) error {
	return m.withWriteTxn(func(txn *badger.Txn) error {
		return txn.Set(keys.EncodeMetaKey(key), []byte(value))
	})
}

// GetMetadata retrieves a metadata value. A missing key yields "".
func (m *MEBStore) GetMetadata(key string) (string, error) {
	var value []byte
	err := m.withReadTxn(func(txn *badger.Txn) error {
		item, err := txn.Get(keys.EncodeMetaKey(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// Metadata returns every metadata pair in the store.
func (m *MEBStore) Metadata() (map[string]string, error) {
	out := make(map[string]string)
	err := m.withReadTxn(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte{keys.MetaPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[string(item.Key()[keys.PrefixSize:])] = string(val)
		}
		return nil
	})
	return out, err
}

// Reset clears all facts, content and metadata. Dictionary entries are kept.
func (m *MEBStore) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	slog.Info("resetting store", "factCount", m.numFacts.Load())

	if err := m.db.DropAll(); err != nil {
		slog.Error("failed to drop all data", "error", err)
		return fmt.Errorf("failed to reset store: %w", err)
	}
	m.numFacts.Store(0)

	slog.Info("store reset complete")
	return nil
}

// Close closes the store and releases resources.
func (m *MEBStore) Close() error {
	slog.Info("closing store", "factCount", m.numFacts.Load())

	if err := m.saveStats(); err != nil {
		slog.Error("failed to save stats", "error", err)
		return fmt.Errorf("failed to save stats: %w", err)
	}

	if err := m.dict.Close(); err != nil {
		slog.Error("failed to close dictionary", "error", err)
		return err
	}

	if err := m.dictDB.Close(); err != nil {
		// Still try to close the main DB.
		slog.Error("failed to close dictionary database", "error", err)
	}

	if err := m.db.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
		return err
	}

	slog.Debug("store closed")
	return nil
}

// Count returns the total number of facts in the store.
func (m *MEBStore) Count() uint64 {
	return m.numFacts.Load()
}

// RecalculateStats scans the SPO index to repair the fact counter, for
// example after an unclean shutdown.
func (m *MEBStore) RecalculateStats() (uint64, error) {
	slog.Info("recalculating stats", "currentCount", m.numFacts.Load())

	var count uint64
	err := m.withReadTxn(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{keys.SPOPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(it.Item().Key()) == keys.TripleKeySize {
				count++
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to recalculate stats: %w", err)
	}

	m.numFacts.Store(count)
	if err := m.saveStats(); err != nil {
		return 0, fmt.Errorf("failed to save recalculated stats: %w", err)
	}

	slog.Info("stats recalculated", "newCount", count)
	return count, nil
}

// GetAllPredicates returns a sorted list of all unique predicates in the store.
func (m *MEBStore) GetAllPredicates() ([]string, error) {
	seen := make(map[uint64]struct{})
	predicates := make([]string, 0)

	err := m.withReadTxn(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte{keys.PSOPrefix}
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			if len(key) != keys.TripleKeySize {
				continue
			}
			_, pID, _ := keys.DecodePSOKey(key)
			if _, ok := seen[pID]; ok {
				continue
			}
			seen[pID] = struct{}{}

			pred, err := m.dict.GetString(pID)
			if err != nil {
				return fmt.Errorf("failed to resolve predicate ID %d: %w", pID, err)
			}
			predicates = append(predicates, pred)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(predicates)
	return predicates, nil
}

// Stats returns store counters for diagnostics.
func (m *MEBStore) Stats() map[string]any {
	stats := map[string]any{
		"facts":     m.numFacts.Load(),
		"in_memory": m.config.InMemory,
	}
	if enc, ok := m.dict.(*dict.Encoder); ok {
		for k, v := range enc.Stats() {
			stats["dict_"+k] = v
		}
	}
	return stats
}
