package database

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/coder/hnsw"
	"github.com/kozaktomas/face-attendance/internal/constants"
)

// EncodingIndex wraps an HNSW graph over student face encodings. It is an
// optional acceleration for the nearest-neighbor probe; the linear scan in
// the matcher remains the reference semantics and the fallback.
type EncodingIndex struct {
	graph      *hnsw.Graph[string]
	savedGraph *hnsw.SavedGraph[string]
	mu         sync.RWMutex
	path       string // path to save/load index
	count      int
}

// IndexEntry is one (student, encoding) pair fed to the index.
type IndexEntry struct {
	StudentID string
	Vector    []float64
}

// NewEncodingIndex creates a new empty encoding index.
func NewEncodingIndex() *EncodingIndex {
	return &EncodingIndex{}
}

// vecToFloat32 converts a stored float64 embedding to the float32 layout
// the HNSW graph operates on.
func vecToFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

// Build replaces the index content with the given entries.
func (x *EncodingIndex) Build(entries []IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if len(entries) == 0 {
		x.graph = nil
		x.savedGraph = nil
		x.count = 0
		return nil
	}

	g := hnsw.NewGraph[string]()
	g.M = constants.HNSWMaxNeighbors
	g.Ml = 1.0 / float64(constants.HNSWMaxNeighbors) // standard HNSW formula
	g.EfSearch = constants.HNSWEfSearch
	g.Distance = hnsw.EuclideanDistance

	count := 0
	for _, e := range entries {
		if len(e.Vector) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(e.StudentID, vecToFloat32(e.Vector)))
		count++
	}

	x.graph = g
	x.savedGraph = nil
	x.count = count
	return nil
}

// Nearest returns the closest indexed student to the query embedding along
// with the exact Euclidean distance recomputed from the node vector.
func (x *EncodingIndex) Nearest(query []float64) (string, float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph == nil && x.savedGraph == nil {
		return "", 0, errors.New("index not initialized")
	}

	q := vecToFloat32(query)
	var neighbors []hnsw.Node[string]
	if x.savedGraph != nil {
		neighbors = x.savedGraph.Search(q, 1)
	} else {
		neighbors = x.graph.Search(q, 1)
	}
	if len(neighbors) == 0 {
		return "", 0, errors.New("index returned no neighbors")
	}

	n := neighbors[0]
	// Recompute the distance in float64 so index answers agree with the
	// linear-scan reference within float32 rounding of the stored vector.
	vec := make([]float64, len(n.Value))
	for i, v := range n.Value {
		vec[i] = float64(v)
	}
	return n.Key, EuclideanDistance(query, vec), nil
}

// Count returns the number of indexed encodings.
func (x *EncodingIndex) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.count
}

// IsEmpty returns true if the index has no graph data loaded.
func (x *EncodingIndex) IsEmpty() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.graph == nil && x.savedGraph == nil
}

// SetPath sets the path for saving/loading the index.
func (x *EncodingIndex) SetPath(path string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.path = path
}

// Save persists the index to disk.
func (x *EncodingIndex) Save() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.path == "" {
		return nil // no path set
	}

	if x.graph == nil {
		// Remove existing file if index is empty (best-effort cleanup).
		_ = os.Remove(x.path)
		return nil
	}

	f, err := os.Create(x.path)
	if err != nil {
		return fmt.Errorf("failed to create HNSW index file: %w", err)
	}
	defer f.Close()

	if err := x.graph.Export(f); err != nil {
		return fmt.Errorf("exporting HNSW graph: %w", err)
	}
	return nil
}

// Load loads the index from disk. Missing file is not an error: the index
// will be rebuilt from the encoding store.
func (x *EncodingIndex) Load(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.path = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	saved, err := hnsw.LoadSavedGraph[string](path)
	if err != nil {
		return fmt.Errorf("failed to load HNSW index: %w", err)
	}

	x.savedGraph = saved
	x.count = saved.Len()
	return nil
}
