package index_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlens/medlens/pkg/index"
)

func TestMemory_SearchRanking(t *testing.T) {
	m := index.NewMemory()
	require.NoError(t, m.Add([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
	}))

	hits := m.Search([]float32{1, 0, 0}, 3)
	require.Len(t, hits, 3)

	assert.Equal(t, 0, hits[0].ID)
	assert.Equal(t, 2, hits[1].ID)
	assert.Equal(t, 1, hits[2].ID)

	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestMemory_SearchLimits(t *testing.T) {
	m := index.NewMemory()
	require.NoError(t, m.Add([][]float32{{1, 0}, {0, 1}}))

	assert.Len(t, m.Search([]float32{1, 0}, 5), 2)
	assert.Len(t, m.Search([]float32{1, 0}, 1), 1)
	assert.Empty(t, m.Search([]float32{1, 0}, 0))
}

func TestMemory_SearchEmptyIndex(t *testing.T) {
	m := index.NewMemory()
	assert.Empty(t, m.Search([]float32{1, 0}, 3))
	assert.Equal(t, 0, m.Len())
}

func TestMemory_CosineScores(t *testing.T) {
	m := index.NewMemory()
	// Magnitude must not affect ranking: both vectors point the same way.
	require.NoError(t, m.Add([][]float32{
		{10, 0},
		{0, 3},
	}))

	hits := m.Search([]float32{2, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].ID)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
	assert.InDelta(t, 0.0, float64(hits[1].Score), 1e-6)
}

func TestMemory_DimensionMismatch(t *testing.T) {
	m := index.NewMemory()
	require.NoError(t, m.Add([][]float32{{1, 0, 0}}))

	err := m.Add([][]float32{{1, 0}})
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4}
	index.Normalize(v)

	norm := math.Sqrt(float64(v[0]*v[0] + v[1]*v[1]))
	assert.InDelta(t, 1.0, norm, 1e-6)
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)

	zero := []float32{0, 0}
	index.Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestMemory_AddCopiesInput(t *testing.T) {
	m := index.NewMemory()
	v := []float32{1, 0}
	require.NoError(t, m.Add([][]float32{v}))

	// The caller's slice must stay untouched after the index normalizes.
	assert.Equal(t, []float32{1, 0}, v)

	v[0] = 0
	hits := m.Search([]float32{1, 0}, 1)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, float64(hits[0].Score), 1e-6)
}
