package dict

import (
	"encoding/binary"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

const (
	// DefaultBlockSize is the number of IDs reserved on disk per refill.
	DefaultBlockSize = 4096

	globalCounterKey = "__dict_global_counter"
)

// RangeAllocator hands out term IDs from blocks reserved on disk, so a
// restart never reuses an ID even if the tail of a block was never issued.
// IDs start at 1; 0 means "unbound" in scan prefixes.
type RangeAllocator struct {
	db        *badger.DB
	blockSize uint64

	mu        sync.Mutex
	globalMax uint64 // highest ID reserved on disk
	next      uint64 // next ID to hand out from the current block
	limit     uint64 // last ID of the current block
}

// NewRangeAllocator creates a new allocator backed by BadgerDB.
func NewRangeAllocator(db *badger.DB, blockSize uint64) (*RangeAllocator, error) {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}

	alloc := &RangeAllocator{
		db:        db,
		blockSize: blockSize,
	}
	if err := alloc.loadGlobalCounter(); err != nil {
		return nil, err
	}

	// Force a refill on first use.
	alloc.next = alloc.globalMax + 1
	alloc.limit = alloc.globalMax
	return alloc, nil
}

// Allocate returns a single fresh ID.
func (r *RangeAllocator) Allocate() (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next > r.limit {
		start := r.globalMax + 1
		if err := r.reserve(r.blockSize); err != nil {
			return 0, err
		}
		r.next = start
		r.limit = r.globalMax
	}

	id := r.next
	r.next++
	return id, nil
}

// AllocateBatch reserves n consecutive IDs and returns the first one.
// The range is taken past the current block so it never overlaps it.
func (r *RangeAllocator) AllocateBatch(n uint64) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.globalMax + 1
	if err := r.reserve(n); err != nil {
		return 0, err
	}
	return start, nil
}

// reserve extends the persisted counter by n. Caller holds mu.
func (r *RangeAllocator) reserve(n uint64) error {
	old := r.globalMax
	r.globalMax += n
	if err := r.saveGlobalCounter(); err != nil {
		r.globalMax = old
		return err
	}
	return nil
}

func (r *RangeAllocator) loadGlobalCounter() error {
	return r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(globalCounterKey))
		if err == badger.ErrKeyNotFound {
			r.globalMax = 0
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) >= 8 {
				r.globalMax = binary.BigEndian.Uint64(val)
			}
			return nil
		})
	})
}

func (r *RangeAllocator) saveGlobalCounter() error {
	return r.db.Update(func(txn *badger.Txn) error {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, r.globalMax)
		return txn.Set([]byte(globalCounterKey), buf)
	})
}

// Reserved returns the highest ID reserved on disk.
func (r *RangeAllocator) Reserved() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.globalMax
}
