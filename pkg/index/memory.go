// Package index provides a small brute-force nearest-neighbor index.
// Vectors are L2-normalized on insert and on query, so ranking by inner
// product is ranking by cosine similarity.
package index

import (
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/medlens/medlens/internal/types"
)

// Memory is an in-memory index safe for unlimited concurrent readers once
// populated.
type Memory struct {
	mu      sync.RWMutex
	dim     int
	vectors [][]float32
}

func NewMemory() *Memory { return &Memory{} }

// Add normalizes and appends the vectors. All vectors must share one
// dimension.
func (m *Memory) Add(vectors [][]float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range vectors {
		if len(v) == 0 {
			return errors.New("empty vector")
		}
		if m.dim == 0 {
			m.dim = len(v)
		}
		if len(v) != m.dim {
			return errors.New("vector dimension mismatch")
		}
		nv := make([]float32, len(v))
		copy(nv, v)
		Normalize(nv)
		m.vectors = append(m.vectors, nv)
	}
	return nil
}

// Search returns up to k hits ordered by non-increasing similarity.
func (m *Memory) Search(query []float32, k int) []types.Hit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if k <= 0 || len(m.vectors) == 0 || len(query) != m.dim {
		return nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	Normalize(q)

	hits := make([]types.Hit, len(m.vectors))
	for i, v := range m.vectors {
		hits[i] = types.Hit{ID: i, Score: dot(v, q)}
	}
	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}

// Len reports the number of indexed vectors.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vectors)
}

// Normalize scales v to unit length in place. The zero vector is left as is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
