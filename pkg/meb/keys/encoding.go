package keys

import (
	"encoding/binary"
)

// Prefix constants for different index types
const (
	SPOPrefix   byte = 0x01 // Subject-Predicate-Object index
	OPSPrefix   byte = 0x02 // Object-Predicate-Subject index
	PSOPrefix   byte = 0x03 // Predicate-Subject-Object index
	ChunkPrefix byte = 0x10 // Content blob storage
	MetaPrefix  byte = 0x30 // Dataset metadata (string keys)

	// System keys (0xFF reserved for system metadata)
	SystemPrefix byte = 0xFF
)

// Key size constants
const (
	PrefixSize = 1 // Size of key prefix byte
	IDSize     = 8 // Size of each uint64 ID component

	// Triple key sizes: prefix(1) + 3*ID(8) = 25 bytes
	TripleKeySize = PrefixSize + 3*IDSize

	// Chunk key sizes: prefix(1) + ID(8) = 9 bytes
	ChunkKeySize = PrefixSize + IDSize
)

// System metadata keys
var KeyFactCount = []byte{SystemPrefix, 0x01} // Stores the total fact count

// Triple encoding format:
// SPO: [prefix(1) | subject(8) | predicate(8) | object(8)] = 25 bytes
// OPS: [prefix(1) | object(8) | predicate(8) | subject(8)] = 25 bytes
// PSO: [prefix(1) | predicate(8) | subject(8) | object(8)] = 25 bytes

// EncodeSPOKey encodes a triple into an SPO (Subject-Predicate-Object) key.
// Uses BigEndian encoding to ensure lexicographic ordering matches numeric ordering.
func EncodeSPOKey(subject, predicate, object uint64) []byte {
	return encodeTriple(SPOPrefix, subject, predicate, object)
}

// EncodeOPSKey encodes a triple into an OPS (Object-Predicate-Subject) key.
func EncodeOPSKey(subject, predicate, object uint64) []byte {
	return encodeTriple(OPSPrefix, object, predicate, subject)
}

// EncodePSOKey encodes a triple into a PSO (Predicate-Subject-Object) key.
func EncodePSOKey(subject, predicate, object uint64) []byte {
	return encodeTriple(PSOPrefix, predicate, subject, object)
}

func encodeTriple(prefix byte, a, b, c uint64) []byte {
	key := make([]byte, TripleKeySize)
	key[0] = prefix
	binary.BigEndian.PutUint64(key[1:9], a)
	binary.BigEndian.PutUint64(key[9:17], b)
	binary.BigEndian.PutUint64(key[17:25], c)
	return key
}

func decodeTriple(key []byte, prefix byte) (a, b, c uint64, ok bool) {
	if len(key) < TripleKeySize || key[0] != prefix {
		return 0, 0, 0, false
	}
	return binary.BigEndian.Uint64(key[1:9]),
		binary.BigEndian.Uint64(key[9:17]),
		binary.BigEndian.Uint64(key[17:25]),
		true
}

// DecodeSPOKey decodes an SPO key back into subject, predicate, object IDs.
func DecodeSPOKey(key []byte) (subject, predicate, object uint64) {
	subject, predicate, object, _ = decodeTriple(key, SPOPrefix)
	return
}

// DecodeOPSKey decodes an OPS key back into subject, predicate, object IDs.
func DecodeOPSKey(key []byte) (subject, predicate, object uint64) {
	object, predicate, subject, _ = decodeTriple(key, OPSPrefix)
	return
}

// DecodePSOKey decodes a PSO key back into subject, predicate, object IDs.
func DecodePSOKey(key []byte) (subject, predicate, object uint64) {
	predicate, subject, object, _ = decodeTriple(key, PSOPrefix)
	return
}

// encodePrefix builds [prefix | a | b] where b is only appended when a is bound.
func encodePrefix(prefix byte, a, b uint64) []byte {
	if a == 0 {
		return []byte{prefix}
	}
	if b == 0 {
		out := make([]byte, PrefixSize+IDSize)
		out[0] = prefix
		binary.BigEndian.PutUint64(out[1:9], a)
		return out
	}
	out := make([]byte, PrefixSize+2*IDSize)
	out[0] = prefix
	binary.BigEndian.PutUint64(out[1:9], a)
	binary.BigEndian.PutUint64(out[9:17], b)
	return out
}

// EncodeSPOPrefix creates a prefix for SPO range scans with bound values.
// If subject is 0, only uses the SPO prefix.
// If predicate is also non-zero, includes both subject and predicate.
func EncodeSPOPrefix(subject, predicate uint64) []byte {
	return encodePrefix(SPOPrefix, subject, predicate)
}

// EncodeOPSPrefix creates a prefix for OPS range scans with bound values.
func EncodeOPSPrefix(object, predicate uint64) []byte {
	return encodePrefix(OPSPrefix, object, predicate)
}

// EncodePSOPrefix creates a prefix for PSO range scans with bound values.
func EncodePSOPrefix(predicate, subject uint64) []byte {
	return encodePrefix(PSOPrefix, predicate, subject)
}

// EncodeChunkKey creates the key for storing raw content blobs.
// Format: [Prefix(1) | ID(8)] = 9 bytes
func EncodeChunkKey(id uint64) []byte {
	k := make([]byte, ChunkKeySize)
	k[0] = ChunkPrefix
	binary.BigEndian.PutUint64(k[1:], id)
	return k
}

// EncodeMetaKey creates the key for a metadata entry.
func EncodeMetaKey(name string) []byte {
	k := make([]byte, PrefixSize+len(name))
	k[0] = MetaPrefix
	copy(k[1:], name)
	return k
}
