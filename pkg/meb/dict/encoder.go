package dict

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrNotFound    = errors.New("key not found in dictionary")
	ErrTermTooLong = errors.New("term exceeds maximum dictionary key length")
)

// Dictionary maps RDF term strings to compact IDs. Encoder implements it.
type Dictionary interface {
	GetOrCreateID(s string) (uint64, error)
	GetIDs(keys []string) ([]uint64, error)
	GetID(s string) (uint64, error)
	GetString(id uint64) (string, error)
	Close() error
}

// Key prefixes for dictionary storage in BadgerDB
const (
	dictForwardPrefix = byte(0x80) // String -> ID
	dictReversePrefix = byte(0x81) // ID -> String

	// MaxTermLength keeps forward keys under Badger's key size limit.
	MaxTermLength = 60000
)

// Encoder implements bi-directional String <-> Uint64 mapping with LRU cache.
// It uses BadgerDB for persistent storage and an in-memory LRU cache for fast lookups.
type Encoder struct {
	db *badger.DB

	forwardCache *lru.Cache[string, uint64]
	reverseCache *lru.Cache[uint64, string]

	allocator *RangeAllocator
}

// NewEncoder creates a new dictionary encoder with the given BadgerDB instance and cache size.
// If the dictionary already exists in BadgerDB, the allocator resumes after its last reserved ID.
func NewEncoder(db *badger.DB, cacheSize int) (*Encoder, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}

	allocator, err := NewRangeAllocator(db, DefaultBlockSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create range allocator: %w", err)
	}

	forward, err := lru.New[string, uint64](cacheSize)
	if err != nil {
		return nil, err
	}
	reverse, err := lru.New[uint64, string](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		db:           db,
		forwardCache: forward,
		reverseCache: reverse,
		allocator:    allocator,
	}, nil
}

// GetOrCreateID gets the ID for a string, creating a new ID if it doesn't exist.
func (e *Encoder) GetOrCreateID(s string) (uint64, error) {
	id, err := e.GetID(s)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, err
	}

	newID, err := e.allocator.Allocate()
	if err != nil {
		return 0, fmt.Errorf("failed to allocate ID: %w", err)
	}

	err = e.db.Update(func(txn *badger.Txn) error {
		return setMapping(txn.Set, s, newID)
	})
	if err != nil {
		return 0, err
	}

	e.remember(s, newID)
	return newID, nil
}

// GetIDs gets IDs for multiple strings in a batch, creating new IDs as needed.
// Results are positional; duplicate inputs map to the same ID.
func (e *Encoder) GetIDs(keys []string) ([]uint64, error) {
	results := make([]uint64, len(keys))

	type miss struct {
		index int
		key   string
	}
	var misses []miss

	for i, key := range keys {
		if len(key) > MaxTermLength {
			return nil, fmt.Errorf("%w: %d bytes", ErrTermTooLong, len(key))
		}
		if id, ok := e.forwardCache.Get(key); ok {
			results[i] = id
		} else {
			misses = append(misses, miss{index: i, key: key})
		}
	}

	if len(misses) == 0 {
		return results, nil
	}

	// Misses may still be on disk.
	var toCreate []miss
	pending := make(map[string][]int)

	err := e.db.View(func(txn *badger.Txn) error {
		for _, m := range misses {
			if idxs, dup := pending[m.key]; dup {
				pending[m.key] = append(idxs, m.index)
				continue
			}
			item, err := txn.Get(makeDictForwardKey(m.key))
			if err == badger.ErrKeyNotFound {
				toCreate = append(toCreate, m)
				pending[m.key] = []int{m.index}
				continue
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				results[m.index] = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
			e.remember(m.key, results[m.index])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(toCreate) == 0 {
		return results, nil
	}

	slog.Debug("dictionary allocating new IDs", "count", len(toCreate))

	startID, err := e.allocator.AllocateBatch(uint64(len(toCreate)))
	if err != nil {
		return nil, fmt.Errorf("failed to allocate batch: %w", err)
	}

	batch := e.db.NewWriteBatch()
	defer batch.Cancel()

	for i, m := range toCreate {
		newID := startID + uint64(i)
		if err := setMapping(batch.Set, m.key, newID); err != nil {
			return nil, err
		}
		for _, idx := range pending[m.key] {
			results[idx] = newID
		}
	}

	if err := batch.Flush(); err != nil {
		return nil, err
	}

	for i, m := range toCreate {
		e.remember(m.key, startID+uint64(i))
	}

	return results, nil
}

// GetString gets the string for an ID.
// Returns ErrNotFound if the ID doesn't exist.
func (e *Encoder) GetString(id uint64) (string, error) {
	if s, ok := e.reverseCache.Get(id); ok {
		return s, nil
	}

	var s string
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeDictReverseKey(id))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			s = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}

	e.reverseCache.Add(id, s)
	return s, nil
}

// GetID gets the ID for a string without creating a new one.
// Returns ErrNotFound if the string doesn't exist.
func (e *Encoder) GetID(s string) (uint64, error) {
	if len(s) > MaxTermLength {
		return 0, fmt.Errorf("%w: %d bytes", ErrTermTooLong, len(s))
	}
	if id, ok := e.forwardCache.Get(s); ok {
		return id, nil
	}

	var id uint64
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(makeDictForwardKey(s))
		if err == badger.ErrKeyNotFound {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id = binary.BigEndian.Uint64(val)
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	e.remember(s, id)
	return id, nil
}

func (e *Encoder) remember(s string, id uint64) {
	e.forwardCache.Add(s, id)
	e.reverseCache.Add(id, s)
}

// setMapping writes both directions of a string <-> ID mapping.
func setMapping(set func(k, v []byte) error, s string, id uint64) error {
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	if err := set(makeDictForwardKey(s), idBytes); err != nil {
		return err
	}
	return set(makeDictReverseKey(id), []byte(s))
}

// makeDictForwardKey creates a BadgerDB key for string -> ID lookup.
// Format: [0x80 | string_length(2) | string_bytes]
func makeDictForwardKey(s string) []byte {
	key := make([]byte, 3+len(s))
	key[0] = dictForwardPrefix
	binary.BigEndian.PutUint16(key[1:3], uint16(len(s)))
	copy(key[3:], s)
	return key
}

// makeDictReverseKey creates a BadgerDB key for ID -> string lookup.
// Format: [0x81 | id(8)]
func makeDictReverseKey(id uint64) []byte {
	key := make([]byte, 9)
	key[0] = dictReversePrefix
	binary.BigEndian.PutUint64(key[1:9], id)
	return key
}

// Close logs cache statistics. The underlying DB is owned by the caller.
func (e *Encoder) Close() error {
	stats := e.Stats()
	slog.Debug("dictionary closed",
		"forwardCacheLen", stats["forward_cache_len"],
		"reverseCacheLen", stats["reverse_cache_len"],
	)
	return nil
}

// Stats returns statistics about the encoder.
func (e *Encoder) Stats() map[string]any {
	return map[string]any{
		"forward_cache_len": e.forwardCache.Len(),
		"reverse_cache_len": e.reverseCache.Len(),
		"reserved_ids":      e.allocator.Reserved(),
	}
}
