// Package store persists document chunks and their embeddings in Postgres
// with the pgvector extension. Each successful ingestion replaces the whole
// index inside one transaction, so the last writer wins and readers see
// either the old or the new content, never a mix.
package store

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/medlens/medlens/internal/models"
)

type ChunkStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

type ChunkStore struct {
	config ChunkStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config ChunkStoreConfig) (*ChunkStore, error) {
	if config.TableName == "" {
		config.TableName = "report_chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	cs := &ChunkStore{
		config: config,
		pool:   pool,
	}

	if err := cs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return cs, nil
}

func (cs *ChunkStore) initialize(ctx context.Context) error {
	_, err := cs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			ord INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d)
		)`, cs.config.TableName, cs.config.VectorDim)

	if _, err := cs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		cs.config.TableName, cs.config.TableName)

	if _, err := cs.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Replace swaps the entire indexed content for the given chunks.
func (cs *ChunkStore) Replace(ctx context.Context, documentID string, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	tx, err := cs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", cs.config.TableName)); err != nil {
		return fmt.Errorf("failed to clear previous index: %w", err)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, ord, content, embedding)
		VALUES ($1, $2, $3, $4, $5)`,
		cs.config.TableName)

	for i, chunk := range chunks {
		id := fmt.Sprintf("%s_%d", documentID, i)
		_, err := tx.Exec(ctx, stmt,
			id,
			documentID,
			i,
			sanitizeUTF8(chunk),
			pgvector.NewVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Search returns up to k chunks ranked by cosine similarity to the query
// vector, best first.
func (cs *ChunkStore) Search(ctx context.Context, query []float32, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		k = 3
	}

	stmt := fmt.Sprintf(`
		SELECT content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2`,
		cs.config.TableName)

	rows, err := cs.pool.Query(ctx, stmt, pgvector.NewVector(query), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.ScoredChunk
	for rows.Next() {
		var c models.ScoredChunk
		if err := rows.Scan(&c.Text, &c.Score); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Count reports the number of indexed chunks.
func (cs *ChunkStore) Count(ctx context.Context) (int, error) {
	var n int
	err := cs.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", cs.config.TableName)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

// Clear removes all indexed chunks. Idempotent.
func (cs *ChunkStore) Clear(ctx context.Context) error {
	_, err := cs.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", cs.config.TableName))
	if err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

func (cs *ChunkStore) Close() {
	if cs.pool != nil {
		cs.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
