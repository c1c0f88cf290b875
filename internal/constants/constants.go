// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Recognition constants
const (
	// DefaultTolerance is the default maximum embedding distance accepted as a match.
	// Lower values = stricter matching.
	DefaultTolerance = 0.6

	// MinTolerance is the strictest tolerance the configuration accepts
	MinTolerance = 0.4

	// MaxTolerance is the loosest tolerance the configuration accepts
	MaxTolerance = 0.8

	// DefaultEmbeddingDim is the length of a face embedding vector
	DefaultEmbeddingDim = 128

	// DefaultFrameSampling processes every Nth frame from the capture source
	DefaultFrameSampling = 2

	// DefaultDisplayThreshold is the minimum confidence required before a
	// match is recorded and displayed
	DefaultDisplayThreshold = 0.5
)

// Attendance status values
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
)

// HNSW index parameters for face embeddings
const (
	// HNSWMaxNeighbors (M) is the maximum number of neighbors per node.
	// Higher values improve recall but increase memory and build time.
	HNSWMaxNeighbors = 16

	// HNSWEfSearch is the search candidate pool size.
	// Higher values improve recall but slow down search.
	HNSWEfSearch = 100
)

// Report and export constants
const (
	// MaxExportColumnWidth caps auto-sized XLSX column widths
	MaxExportColumnWidth = 50

	// DefaultDefaulterThreshold is the attendance percentage below which a
	// student is listed as a defaulter
	DefaultDefaulterThreshold = 75.0

	// DefaultRecentLimit is the default number of recent attendance records
	// shown on the dashboard
	DefaultRecentLimit = 10
)

// File upload constants
const (
	// MaxUploadSize is the maximum frame upload size in bytes (20MB)
	MaxUploadSize = 20 << 20
)
