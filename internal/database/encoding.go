package database

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Face encodings are stored in the students.face_encoding BLOB column as a
// little-endian uint32 dimension prefix followed by the vector components as
// little-endian float64 values.

// EncodeEmbedding serializes an embedding vector for BLOB storage.
// Returns nil for an empty vector (stored as NULL).
func EncodeEmbedding(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}

	buf := make([]byte, 4+8*len(vec))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[4+8*i:], math.Float64bits(v))
	}
	return buf
}

// DecodeEmbedding deserializes an embedding vector from BLOB storage.
// Rejects empty and truncated payloads; callers skip rows that fail to decode.
func DecodeEmbedding(blob []byte) ([]float64, error) {
	if len(blob) < 4 {
		return nil, fmt.Errorf("encoding blob too short: %d bytes", len(blob))
	}

	dim := int(binary.LittleEndian.Uint32(blob[0:4]))
	if dim == 0 {
		return nil, fmt.Errorf("encoding blob has zero dimension")
	}
	if len(blob) != 4+8*dim {
		return nil, fmt.Errorf("encoding blob truncated: expected %d bytes for dim %d, got %d", 4+8*dim, dim, len(blob))
	}

	vec := make([]float64, dim)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[4+8*i:]))
	}
	return vec, nil
}
