// Package match decides whether a face embedding belongs to an enrolled
// identity. Matching is an exact linear scan over the gallery with a
// first-minimum-wins tie-break, so results are fully deterministic for a
// fixed gallery.
package match

import (
	"math"

	"github.com/luminar-software/presenca/internal/domain"
)

// Result is the outcome of matching one embedding against the gallery.
// Distance is surfaced even when the face is unknown, for diagnostics.
type Result struct {
	Identity string
	Distance float64
	Known    bool
}

// Matcher holds the enrolled gallery, read-only after construction. Safe
// for concurrent Match calls.
type Matcher struct {
	entries   []domain.GalleryEntry
	threshold float64
	dimension int
}

// New builds a Matcher from enrolled entries. Identities are unique within
// the gallery: a later entry for the same identity replaces the earlier
// embedding in place, keeping first-occurrence order so tie-breaks stay
// deterministic. An empty gallery is a fatal condition.
func New(entries []domain.GalleryEntry, threshold float64) (*Matcher, error) {
	deduped := make([]domain.GalleryEntry, 0, len(entries))
	index := make(map[string]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Identity]; ok {
			deduped[i].Embedding = e.Embedding
			continue
		}
		index[e.Identity] = len(deduped)
		deduped = append(deduped, e)
	}

	if len(deduped) == 0 {
		return nil, domain.ErrEmptyGallery
	}

	return &Matcher{
		entries:   deduped,
		threshold: threshold,
		dimension: len(deduped[0].Embedding),
	}, nil
}

// Size returns the number of distinct enrolled identities.
func (m *Matcher) Size() int {
	return len(m.entries)
}

// Dimension returns the embedding dimensionality of the gallery.
func (m *Matcher) Dimension() int {
	return m.dimension
}

// Match compares the embedding against every gallery entry and returns the
// closest identity when its distance is strictly below the threshold,
// otherwise an unknown result carrying the best distance. Equidistant
// entries resolve to the earliest-enrolled one.
func (m *Matcher) Match(embedding []float64) (Result, error) {
	if len(embedding) != m.dimension {
		return Result{}, domain.ErrEmbeddingDimension
	}

	best := 0
	bestDist := EuclideanDistance(m.entries[0].Embedding, embedding)
	for i := 1; i < len(m.entries); i++ {
		if d := EuclideanDistance(m.entries[i].Embedding, embedding); d < bestDist {
			best = i
			bestDist = d
		}
	}

	if bestDist < m.threshold {
		return Result{Identity: m.entries[best].Identity, Distance: bestDist, Known: true}, nil
	}
	return Result{Distance: bestDist}, nil
}

// EuclideanDistance computes the L2 distance between two equal-length
// vectors. Face embeddings compare lower-is-closer under this metric.
func EuclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
