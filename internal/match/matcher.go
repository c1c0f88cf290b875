package match

import (
	"github.com/kozaktomas/face-attendance/internal/database"
)

// Result is the classification of one query embedding.
type Result struct {
	Known      bool    `json:"known"`
	StudentID  string  `json:"student_id,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Matcher classifies query embeddings against the encoding store.
type Matcher struct {
	store     *Store
	tolerance float64
	index     *database.EncodingIndex // optional ANN acceleration
}

// NewMatcher creates a matcher with the given tolerance. A query matches
// when its distance to the closest stored encoding is strictly below the
// tolerance.
func NewMatcher(store *Store, tolerance float64) *Matcher {
	return &Matcher{store: store, tolerance: tolerance}
}

// Tolerance returns the configured tolerance.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// UseIndex attaches an HNSW index for the nearest-neighbor probe. The index
// only accelerates the scan; the tolerance decision and confidence are
// computed the same way. Pass nil to return to the linear scan.
func (m *Matcher) UseIndex(index *database.EncodingIndex) {
	m.index = index
}

// Classify computes the distance from the query to every stored encoding and
// selects the minimum. A strict minimum below tolerance is a match with
// confidence 1 - distance/tolerance; anything else is unknown. The scan keeps
// the earliest minimum, so exact ties resolve to the first-loaded encoding.
// An empty store or a malformed query always yields unknown. No side effects.
func (m *Matcher) Classify(query []float64) Result {
	if len(query) == 0 {
		return Result{}
	}
	if dim := m.store.Dim(); dim > 0 && len(query) != dim {
		return Result{}
	}

	encodings := m.store.All()
	if len(encodings) == 0 {
		return Result{}
	}

	var (
		bestID   string
		bestDist float64
		found    bool
	)

	if m.index != nil && !m.index.IsEmpty() {
		if id, dist, err := m.index.Nearest(query); err == nil {
			bestID, bestDist, found = id, dist, true
		}
	}

	if !found {
		for _, e := range encodings {
			d := database.EuclideanDistance(query, e.Vector)
			if !found || d < bestDist {
				bestID = e.StudentID
				bestDist = d
				found = true
			}
		}
	}

	if !found || bestDist >= m.tolerance {
		return Result{}
	}

	return Result{
		Known:      true,
		StudentID:  bestID,
		Distance:   bestDist,
		Confidence: 1 - bestDist/m.tolerance,
	}
}
