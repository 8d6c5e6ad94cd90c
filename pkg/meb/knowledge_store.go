package meb

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/shaclreport/pkg/meb/keys"
)

// AddFact inserts a single fact.
func (m *MEBStore) AddFact(fact Fact) error {
	if err := validateFact(fact); err != nil {
		return fmt.Errorf("failed to add fact: %w", err)
	}
	_, err := m.AddFactBatch([]Fact{fact})
	return err
}

// AddFactBatch inserts facts into the SPO, OPS and PSO indices and returns
// how many were new. Triples already stored, or repeated within the batch,
// are skipped so the fact counter stays exact.
func (m *MEBStore) AddFactBatch(facts []Fact) (int, error) {
	if err := validateFacts(facts); err != nil {
		return 0, fmt.Errorf("batch validation failed: %w", err)
	}
	if m.config.ReadOnly {
		return 0, ErrReadOnly
	}

	// Collect unique terms so the dictionary is hit once per term.
	index := make(map[string]int)
	var terms []string
	ref := func(s string) int {
		i, ok := index[s]
		if !ok {
			i = len(terms)
			index[s] = i
			terms = append(terms, s)
		}
		return i
	}
	refs := make([][3]int, len(facts))
	for i, f := range facts {
		refs[i] = [3]int{ref(f.Subject), ref(f.Predicate), ref(f.Object)}
	}

	ids, err := m.dict.GetIDs(terms)
	if err != nil {
		return 0, fmt.Errorf("failed to encode terms: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	type triple struct{ s, p, o uint64 }
	seen := make(map[triple]struct{}, len(facts))
	fresh := make([]triple, 0, len(facts))

	err = m.withReadTxn(func(txn *badger.Txn) error {
		for _, r := range refs {
			t := triple{ids[r[0]], ids[r[1]], ids[r[2]]}
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}

			_, err := txn.Get(keys.EncodeSPOKey(t.s, t.p, t.o))
			if err == nil {
				continue
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			fresh = append(fresh, t)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to check existing facts: %w", err)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	batch := m.db.NewWriteBatch()
	defer batch.Cancel()

	for _, t := range fresh {
		if err := batch.Set(keys.EncodeSPOKey(t.s, t.p, t.o), nil); err != nil {
			return 0, fmt.Errorf("failed to set SPO key: %w", err)
		}
		if err := batch.Set(keys.EncodeOPSKey(t.s, t.p, t.o), nil); err != nil {
			return 0, fmt.Errorf("failed to set OPS key: %w", err)
		}
		if err := batch.Set(keys.EncodePSOKey(t.s, t.p, t.o), nil); err != nil {
			return 0, fmt.Errorf("failed to set PSO key: %w", err)
		}
	}

	if err := batch.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush batch: %w", err)
	}
	m.numFacts.Add(uint64(len(fresh)))
	return len(fresh), nil
}
