package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/pkg/extract"
	"github.com/medlens/medlens/pkg/processor"
	"github.com/medlens/medlens/server"
)

type stubAnalyzer struct {
	result *models.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(context.Context, []byte, string) (*models.AnalysisResult, error) {
	return s.result, s.err
}

type stubModel struct {
	answer  string
	genErr  error
	pingErr error
}

func (s *stubModel) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (s *stubModel) Generate(context.Context, string) (string, error) {
	return s.answer, s.genErr
}

func (s *stubModel) GenerateStream(_ context.Context, _ string, fn func(string) error) error {
	if s.genErr != nil {
		return s.genErr
	}
	return fn(s.answer)
}

func (s *stubModel) Ping(context.Context) error { return s.pingErr }

func (s *stubModel) Models() (string, string) { return "llama3.2", "nomic-embed-text" }

// memStore is an in-memory stand-in for the PostgreSQL chunk store.
type memStore struct {
	chunks []string
}

func (m *memStore) Replace(_ context.Context, _ string, chunks []string, _ [][]float32) error {
	m.chunks = chunks
	return nil
}

func (m *memStore) Search(_ context.Context, _ []float32, k int) ([]models.ScoredChunk, error) {
	if k > len(m.chunks) {
		k = len(m.chunks)
	}
	out := make([]models.ScoredChunk, k)
	for i := 0; i < k; i++ {
		out[i] = models.ScoredChunk{Text: m.chunks[i], Score: 0.9}
	}
	return out, nil
}

func (m *memStore) Count(context.Context) (int, error) { return len(m.chunks), nil }

func (m *memStore) Clear(context.Context) error {
	m.chunks = nil
	return nil
}

func (m *memStore) Close() {}

type stubKnowledge struct {
	ready bool
	size  int
}

func (s stubKnowledge) Ready() bool { return s.ready }
func (s stubKnowledge) Size() int   { return s.size }

type serverOptions struct {
	analyzer server.Analyzer
	store    *memStore
	model    *stubModel
	config   server.Config
}

func newTestServer(opts serverOptions) http.Handler {
	if opts.analyzer == nil {
		opts.analyzer = &stubAnalyzer{result: &models.AnalysisResult{Success: true}}
	}
	if opts.model == nil {
		opts.model = &stubModel{answer: "stub answer"}
	}

	extractor := extract.NewWithConfig(extract.Config{
		OCR: func(context.Context, []byte) (string, error) { return "ocr text", nil },
	})
	chunker := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 50, ChunkOverlap: 10})

	var srv *server.Server
	if opts.store != nil {
		srv = server.New(opts.config, opts.analyzer, extractor, chunker, opts.store,
			opts.model, stubKnowledge{ready: true, size: 14}, zerolog.Nop())
	} else {
		srv = server.New(opts.config, opts.analyzer, extractor, chunker, nil,
			opts.model, stubKnowledge{ready: true, size: 14}, zerolog.Nop())
	}
	return srv.Handler()
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func postFile(t *testing.T, h http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestUpload_Success(t *testing.T) {
	analyzer := &stubAnalyzer{result: &models.AnalysisResult{
		Success:       true,
		ReportType:    models.ReportLaboratory,
		TotalFindings: 1,
		Explanations: []models.Explanation{{
			Ordinal:     1,
			DisplayName: "Hemoglobin",
			Text:        "explained",
		}},
	}}
	h := newTestServer(serverOptions{analyzer: analyzer})

	rec := postFile(t, h, "/upload", "report.pdf", []byte("%PDF-1.4 fake"))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "laboratory", body["report_type"])
	assert.EqualValues(t, 1, body["total_findings"])
}

func TestUpload_NoFile(t *testing.T) {
	h := newTestServer(serverOptions{})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No file provided", body["error"])
}

func TestUpload_EmptyFile(t *testing.T) {
	h := newTestServer(serverOptions{})

	rec := postFile(t, h, "/upload", "report.pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpload_UnsupportedExtension(t *testing.T) {
	h := newTestServer(serverOptions{})

	rec := postFile(t, h, "/upload", "report.docx", []byte("data"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "File type not supported")
}

func TestUpload_TooLarge(t *testing.T) {
	h := newTestServer(serverOptions{config: server.Config{MaxUploadMB: 1}})

	rec := postFile(t, h, "/upload", "report.pdf", bytes.Repeat([]byte("a"), 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUpload_ExtractionFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: &extract.ExtractionError{
		Format: "pdf",
		Err:    errors.New("malformed document"),
	}}
	h := newTestServer(serverOptions{analyzer: analyzer})

	rec := postFile(t, h, "/upload", "report.pdf", []byte("bad"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "malformed document")
}

func TestUpload_InternalFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("index wedged")}
	h := newTestServer(serverOptions{analyzer: analyzer})

	rec := postFile(t, h, "/upload", "report.pdf", []byte("data"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// Internal detail stays out of the response body.
	body := decodeJSON(t, rec)
	assert.NotContains(t, body["error"], "index wedged")
}

func TestIngest_AndQuery(t *testing.T) {
	store := &memStore{}
	h := newTestServer(serverOptions{store: store, model: &stubModel{answer: "The hemoglobin is low."}})

	rec := postFile(t, h, "/ingest", "report.txt",
		[]byte("Hemoglobin 10.2 g/dl. The patient should follow up with their physician."))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotZero(t, body["chunks_count"])
	assert.NotEmpty(t, store.chunks)

	rec = postJSON(t, h, "/query", `{"question":"Is the hemoglobin normal?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body = decodeJSON(t, rec)
	assert.Equal(t, "The hemoglobin is low.", body["answer"])
	assert.NotEmpty(t, body["retrieved_chunks"])
}

func TestIngest_EmptyText(t *testing.T) {
	h := newTestServer(serverOptions{store: &memStore{}})

	rec := postFile(t, h, "/ingest", "report.txt", []byte("   \n  "))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, "No text found in the file", body["error"])
}

func TestIngest_NoStore(t *testing.T) {
	h := newTestServer(serverOptions{})

	rec := postFile(t, h, "/ingest", "report.txt", []byte("text"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQuery_NoDocuments(t *testing.T) {
	h := newTestServer(serverOptions{store: &memStore{}})

	rec := postJSON(t, h, "/query", `{"question":"anything?"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeJSON(t, rec)
	assert.Contains(t, body["error"], "No documents indexed")
}

func TestQuery_EmptyQuestion(t *testing.T) {
	h := newTestServer(serverOptions{store: &memStore{chunks: []string{"chunk"}}})

	rec := postJSON(t, h, "/query", `{"question":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuery_GenerationFailure(t *testing.T) {
	h := newTestServer(serverOptions{
		store: &memStore{chunks: []string{"chunk"}},
		model: &stubModel{genErr: errors.New("model down")},
	})

	rec := postJSON(t, h, "/query", `{"question":"anything?"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClear_Idempotent(t *testing.T) {
	store := &memStore{chunks: []string{"chunk"}}
	h := newTestServer(serverOptions{store: store})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/clear", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON(t, rec)
		assert.Equal(t, "Index cleared successfully", body["message"])
	}
	assert.Empty(t, store.chunks)
}

func TestHealth(t *testing.T) {
	h := newTestServer(serverOptions{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "llama3.2", body["chat_model"])
}

func TestHealth_Degraded(t *testing.T) {
	h := newTestServer(serverOptions{model: &stubModel{pingErr: errors.New("connection refused")}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, "degraded", body["status"])
}

func TestStatus(t *testing.T) {
	h := newTestServer(serverOptions{store: &memStore{chunks: []string{"a", "b"}}})

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, true, body["index_exists"])
	assert.EqualValues(t, 2, body["chunks_count"])
	assert.Equal(t, true, body["kb_index_loaded"])
	assert.EqualValues(t, 14, body["kb_entries"])
	assert.Equal(t, true, body["ollama_working"])
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
