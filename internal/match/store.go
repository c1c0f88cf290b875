// Package match implements the attendance-matching core: an in-memory store
// of known face encodings and a matcher that classifies query embeddings
// against it.
package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/database"
)

// Encoding is one (student, embedding) pair held by the store.
type Encoding struct {
	StudentID string
	Vector    []float64
}

// Store holds the known encodings for a recognition session. It is loaded
// once per session and is read-only during recognition; the only mutation is
// a wholesale replace via Reload, serialized with readers.
type Store struct {
	loader database.StudentReader
	dim    int // expected embedding dimension, 0 accepts the first seen

	mu        sync.RWMutex
	encodings []Encoding
	skipped   int
}

// NewStore creates an encoding store backed by the given student reader.
// dim is the expected embedding dimension; rows with any other dimension
// are skipped on load.
func NewStore(loader database.StudentReader, dim int) *Store {
	return &Store{loader: loader, dim: dim}
}

// Reload replaces the store contents from the repository. Students without
// an encoding and rows whose encoding has the wrong dimension are skipped
// and counted, never matched.
func (s *Store) Reload(ctx context.Context) error {
	students, err := s.loader.List(ctx)
	if err != nil {
		return fmt.Errorf("loading encodings: %w", err)
	}

	encodings := make([]Encoding, 0, len(students))
	skipped := 0
	for _, st := range students {
		if !st.HasEncoding() {
			continue
		}
		if s.dim > 0 && len(st.Encoding) != s.dim {
			skipped++
			continue
		}
		encodings = append(encodings, Encoding{StudentID: st.StudentID, Vector: st.Encoding})
	}

	s.mu.Lock()
	s.encodings = encodings
	s.skipped = skipped
	s.mu.Unlock()
	return nil
}

// All returns the loaded encodings in load order. The returned slice is a
// snapshot; callers must not mutate the vectors.
func (s *Store) All() []Encoding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encodings
}

// Count returns the number of loaded encodings.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.encodings)
}

// Skipped returns how many stored rows were rejected on the last reload.
func (s *Store) Skipped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.skipped
}

// Dim returns the expected embedding dimension (0 if unconstrained).
func (s *Store) Dim() int {
	return s.dim
}

// IndexEntries returns the store content in the layout the HNSW index builds from.
func (s *Store) IndexEntries() []database.IndexEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]database.IndexEntry, len(s.encodings))
	for i, e := range s.encodings {
		entries[i] = database.IndexEntry{StudentID: e.StudentID, Vector: e.Vector}
	}
	return entries
}
