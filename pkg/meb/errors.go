package meb

import "errors"

var (
	ErrInvalidFact = errors.New("invalid fact")
	ErrEmptyBatch  = errors.New("empty batch")
	ErrReadOnly    = errors.New("store is read-only")
)
