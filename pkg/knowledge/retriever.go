// Package knowledge holds the fixed reference knowledge base and serves
// similarity lookups against it.
package knowledge

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/internal/types"
)

// Retriever answers "what reference snippets relate to this finding". The
// knowledge base is embedded once at construction; after that the retriever
// is read-only and safe for concurrent use. A retriever whose startup
// embedding failed stays usable and returns no context.
type Retriever struct {
	entries  []models.KnowledgeEntry
	embedder types.Embedder
	index    types.VectorIndex
	ready    bool
	log      zerolog.Logger
}

// NewRetriever embeds the entries and builds the index. An embedding failure
// does not error out: the service runs degraded without reference context.
func NewRetriever(ctx context.Context, embedder types.Embedder, idx types.VectorIndex, entries []models.KnowledgeEntry, log zerolog.Logger) *Retriever {
	r := &Retriever{
		entries:  entries,
		embedder: embedder,
		index:    idx,
		log:      log,
	}

	if embedder == nil {
		log.Warn().Msg("no embedder configured; knowledge retrieval disabled")
		return r
	}

	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Text
	}

	vectors, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Msg("could not embed knowledge base; retrieval disabled")
		return r
	}
	if len(vectors) != len(entries) {
		log.Warn().Int("got", len(vectors)).Int("want", len(entries)).
			Msg("knowledge base embedding count mismatch; retrieval disabled")
		return r
	}
	if err := idx.Add(vectors); err != nil {
		log.Warn().Err(err).Msg("could not index knowledge base; retrieval disabled")
		return r
	}

	r.ready = true
	return r
}

// Ready reports whether the knowledge index was built.
func (r *Retriever) Ready() bool { return r.ready }

// Size reports the number of knowledge base entries.
func (r *Retriever) Size() int { return len(r.entries) }

// Retrieve returns the texts of up to k entries most similar to the query,
// best first. Any failure is recovered as an empty result; the pipeline
// treats that as "no supporting context".
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) []string {
	if !r.ready || k <= 0 {
		return nil
	}

	vectors, err := r.embedder.EmbedTexts(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.log.Warn().Err(err).Str("query", query).Msg("knowledge query embedding failed")
		return nil
	}

	hits := r.index.Search(vectors[0], k)
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.ID < 0 || h.ID >= len(r.entries) {
			continue
		}
		texts = append(texts, r.entries[h.ID].Text)
	}
	return texts
}

// Describe summarizes the retriever for status reporting.
func (r *Retriever) Describe() string {
	return fmt.Sprintf("%d entries, ready=%t", len(r.entries), r.ready)
}
