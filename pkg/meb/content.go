package meb

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/duynguyendang/shaclreport/pkg/meb/keys"
	"github.com/klauspost/compress/s2"
)

// sourceChunkID is the content slot for the uploaded document. Term IDs
// start at 1, so it can never collide with a dictionary-keyed chunk.
const sourceChunkID = 0

// SetContent stores S2-compressed content for a given ID.
func (m *MEBStore) SetContent(id uint64, data []byte) error {
	compressed := s2.Encode(nil, data)
	return m.withWriteTxn(func(txn *badger.Txn) error {
		return txn.Set(keys.EncodeChunkKey(id), compressed)
	})
}

// GetContent retrieves and decompresses content for a given ID.
// Missing content returns nil with no error.
func (m *MEBStore) GetContent(id uint64) ([]byte, error) {
	var data []byte
	err := m.withReadTxn(func(txn *badger.Txn) error {
		item, err := txn.Get(keys.EncodeChunkKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	decompressed, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress content: %w", err)
	}
	if decompressed == nil {
		return []byte{}, nil
	}
	return decompressed, nil
}

// SetSource keeps the original document text next to its triples.
func (m *MEBStore) SetSource(data []byte) error {
	return m.SetContent(sourceChunkID, data)
}

// GetSource returns the document stored by SetSource, or nil.
func (m *MEBStore) GetSource() ([]byte, error) {
	return m.GetContent(sourceChunkID)
}
