package meb

import (
	"context"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/shaclreport/pkg/meb/keys"
)

// scanStrategy is the index and key prefix chosen for one scan.
type scanStrategy struct {
	prefix []byte
	index  byte // SPOPrefix, OPSPrefix, or PSOPrefix
}

// selectScanStrategy picks the index with the longest bound prefix.
// Subject wins over object, object over predicate; with nothing bound the
// whole SPO index is walked.
func selectScanStrategy(sID, pID, oID uint64) scanStrategy {
	switch {
	case sID != 0:
		return scanStrategy{prefix: keys.EncodeSPOPrefix(sID, pID), index: keys.SPOPrefix}
	case oID != 0:
		return scanStrategy{prefix: keys.EncodeOPSPrefix(oID, pID), index: keys.OPSPrefix}
	case pID != 0:
		return scanStrategy{prefix: keys.EncodePSOPrefix(pID, 0), index: keys.PSOPrefix}
	default:
		return scanStrategy{prefix: []byte{keys.SPOPrefix}, index: keys.SPOPrefix}
	}
}

// resolveScanIDs maps bound terms to dictionary IDs. ok is false when a
// bound term was never stored, meaning nothing can match.
func (m *MEBStore) resolveScanIDs(s, p, o string) (sID, pID, oID uint64, ok bool) {
	for _, t := range []struct {
		term string
		id   *uint64
	}{{s, &sID}, {p, &pID}, {o, &oID}} {
		if t.term == "" {
			continue
		}
		id, err := m.dict.GetID(t.term)
		if err != nil {
			return 0, 0, 0, false
		}
		*t.id = id
	}
	return sID, pID, oID, true
}

// Scan returns an iterator over facts matching the pattern.
// Empty string means wildcard.
func (m *MEBStore) Scan(s, p, o string) iter.Seq2[Fact, error] {
	return m.ScanContext(context.Background(), s, p, o)
}

// ScanContext is like Scan but stops with ctx.Err() once ctx is done.
func (m *MEBStore) ScanContext(ctx context.Context, s, p, o string) iter.Seq2[Fact, error] {
	return func(yield func(Fact, error) bool) {
		sID, pID, oID, ok := m.resolveScanIDs(s, p, o)
		if !ok {
			return
		}
		strategy := selectScanStrategy(sID, pID, oID)

		txn := m.db.NewTransaction(false)
		defer txn.Discard()

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = strategy.prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(strategy.prefix); it.ValidForPrefix(strategy.prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				yield(Fact{}, err)
				return
			}

			key := it.Item().Key()
			if len(key) != keys.TripleKeySize {
				continue
			}

			var fs, fp, fo uint64
			switch strategy.index {
			case keys.SPOPrefix:
				fs, fp, fo = keys.DecodeSPOKey(key)
			case keys.OPSPrefix:
				fs, fp, fo = keys.DecodeOPSKey(key)
			case keys.PSOPrefix:
				fs, fp, fo = keys.DecodePSOKey(key)
			}

			// The prefix covers at most two positions.
			if (sID != 0 && fs != sID) || (pID != 0 && fp != pID) || (oID != 0 && fo != oID) {
				continue
			}

			fact, err := m.resolveFact(fs, fp, fo, s, p, o)
			if err != nil {
				yield(Fact{}, err)
				return
			}
			if !yield(fact, nil) {
				return
			}
		}
	}
}

// resolveFact turns IDs back into terms, reusing the bound inputs.
func (m *MEBStore) resolveFact(sID, pID, oID uint64, s, p, o string) (Fact, error) {
	var err error
	if s == "" {
		if s, err = m.dict.GetString(sID); err != nil {
			return Fact{}, fmt.Errorf("failed to resolve subject ID %d: %w", sID, err)
		}
	}
	if p == "" {
		if p, err = m.dict.GetString(pID); err != nil {
			return Fact{}, fmt.Errorf("failed to resolve predicate ID %d: %w", pID, err)
		}
	}
	if o == "" {
		if o, err = m.dict.GetString(oID); err != nil {
			return Fact{}, fmt.Errorf("failed to resolve object ID %d: %w", oID, err)
		}
	}
	return Fact{Subject: s, Predicate: p, Object: o}, nil
}

// Contains reports whether the exact triple is stored.
func (m *MEBStore) Contains(f Fact) (bool, error) {
	sID, pID, oID, ok := m.resolveScanIDs(f.Subject, f.Predicate, f.Object)
	if !ok || sID == 0 || pID == 0 || oID == 0 {
		return false, nil
	}
	found := false
	err := m.withReadTxn(func(txn *badger.Txn) error {
		_, err := txn.Get(keys.EncodeSPOKey(sID, pID, oID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		found = err == nil
		return err
	})
	return found, err
}
