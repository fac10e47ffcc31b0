package types

import (
	"context"

	"github.com/medlens/medlens/internal/models"
)

// Core interfaces

// TextExtractor turns a raw document into plain text. The format tag is the
// lower-cased file extension without the dot.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, format string) (string, error)
}

// Embedder converts texts into fixed-dimension vectors.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces free text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Hit is one ranked result from a vector index search.
type Hit struct {
	ID    int
	Score float32
}

// VectorIndex is a nearest-neighbor structure over embedding vectors.
// Implementations L2-normalize on insert and query so that inner-product
// ranking equals cosine similarity.
type VectorIndex interface {
	Add(vectors [][]float32) error
	Search(query []float32, k int) []Hit
	Len() int
}

// ChunkStore persists document chunks with their embeddings and supports
// similarity search. Replace swaps the entire indexed content; the last
// writer wins.
type ChunkStore interface {
	Replace(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close()
}
