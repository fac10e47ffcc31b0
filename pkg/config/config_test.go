package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlens/medlens/pkg/config"
)

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
  max_upload_mb: 32
llm:
  base_url: http://ollama:11434
  chat_model: llama3.2
database:
  url: postgres://localhost:5432/medlens
chunker:
  chunk_size: 400
`), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 32, cfg.Server.MaxUploadMB)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "postgres://localhost:5432/medlens", cfg.Database.URL)
	assert.Equal(t, 400, cfg.Chunker.ChunkSize)

	// Unset fields fall back to defaults.
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "nomic-embed-text", cfg.LLM.EmbedModel)
	assert.Equal(t, 50, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 768, cfg.Database.VectorDim)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 5001, cfg.Server.Port)
	assert.Equal(t, 120*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 16, cfg.Server.MaxUploadMB)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "llama3.2", cfg.LLM.ChatModel)
	assert.Equal(t, 3, cfg.LLM.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.LLM.RetryDelay)
	assert.Equal(t, 500, cfg.Chunker.ChunkSize)
	assert.Equal(t, 2, cfg.Retrieval.KnowledgeTopK)
	assert.Equal(t, 3, cfg.Retrieval.QueryTopK)
	assert.Equal(t, "tesseract", cfg.Extract.TesseractCmd)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://remote:11434")
	t.Setenv("DATABASE_URL", "postgres://db:5432/reports")
	t.Setenv("TESSERACT_CMD", "/opt/bin/tesseract")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "http://remote:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "postgres://db:5432/reports", cfg.Database.URL)
	assert.Equal(t, "/opt/bin/tesseract", cfg.Extract.TesseractCmd)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := config.LoadConfig("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o644))

	_, err := config.LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())

	cfg.Server.Port = -1
	cfg.LLM.MaxTokens = 100000
	cfg.Chunker.ChunkOverlap = cfg.Chunker.ChunkSize

	errs := cfg.Validate()
	require.Len(t, errs, 3)

	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "server.port")
	assert.Contains(t, fields, "llm.max_tokens")
	assert.Contains(t, fields, "chunker.chunk_overlap")
}
