package meb

import "github.com/dgraph-io/badger/v4"

// withReadTxn executes a function within a read transaction.
func (m *MEBStore) withReadTxn(fn func(*badger.Txn) error) error {
	return m.db.View(fn)
}

// withWriteTxn executes a function within a write transaction.
func (m *MEBStore) withWriteTxn(fn func(*badger.Txn) error) error {
	if m.config.ReadOnly {
		return ErrReadOnly
	}
	return m.db.Update(fn)
}
