package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medlens/medlens/pkg/extract"
)

var analyzeExtensions = []string{"pdf", "png", "jpg", "jpeg"}

var ingestExtensions = []string{"pdf", "png", "jpg", "jpeg", "txt", "docx", "html", "htm"}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// readUpload validates the multipart file against the size cap and the
// extension allow-list and returns its bytes plus the format tag.
func (s *Server) readUpload(c *gin.Context, allowed []string) ([]byte, string, string, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file provided")
		return nil, "", "", false
	}
	if fileHeader.Filename == "" {
		respondError(c, http.StatusBadRequest, "No file selected")
		return nil, "", "", false
	}
	if fileHeader.Size == 0 {
		respondError(c, http.StatusBadRequest, "Empty file")
		return nil, "", "", false
	}
	if fileHeader.Size > int64(s.config.MaxUploadMB)<<20 {
		respondError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Maximum size is %dMB.", s.config.MaxUploadMB))
		return nil, "", "", false
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), "."))
	if !allowedExtension(ext, allowed) {
		respondError(c, http.StatusBadRequest,
			"File type not supported. Allowed: "+strings.Join(allowed, ", "))
		return nil, "", "", false
	}

	data, err := readMultipartFile(fileHeader)
	if err != nil {
		s.log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to read upload")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return nil, "", "", false
	}

	return data, ext, fileHeader.Filename, true
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func allowedExtension(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// handleUpload runs the analysis pipeline over one uploaded report.
func (s *Server) handleUpload(c *gin.Context) {
	data, format, filename, ok := s.readUpload(c, analyzeExtensions)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	result, err := s.analyzer.Analyze(ctx, data, format)
	if err != nil {
		var unsupported *extract.UnsupportedFormatError
		var extraction *extract.ExtractionError
		if errors.As(err, &unsupported) || errors.As(err, &extraction) {
			respondError(c, http.StatusBadRequest, "Analysis failed: "+err.Error())
			return
		}
		s.log.Error().Err(err).Str("filename", filename).Msg("analysis failed")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.log.Info().Str("filename", filename).Int("findings", result.TotalFindings).
		Msg("analysis complete")
	c.JSON(http.StatusOK, result)
}

// handleIngest chunks and indexes one document for the chat endpoints,
// replacing any previously indexed content.
func (s *Server) handleIngest(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, "Document index is not configured")
		return
	}

	data, format, filename, ok := s.readUpload(c, ingestExtensions)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	text, err := s.extractor.Extract(ctx, data, format)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Error extracting text: "+err.Error())
		return
	}
	if strings.TrimSpace(text) == "" {
		respondError(c, http.StatusBadRequest, "No text found in the file")
		return
	}

	chunks := s.chunker.Chunk(text)

	// Chunks whose embedding fails after retries are skipped rather than
	// failing the whole ingestion.
	var (
		kept    []string
		vectors [][]float32
		failed  int
	)
	for i, chunk := range chunks {
		embedded, err := s.model.EmbedTexts(ctx, []string{chunk})
		if err != nil || len(embedded) == 0 {
			s.log.Warn().Err(err).Int("chunk", i).Msg("chunk embedding failed")
			failed++
			continue
		}
		kept = append(kept, chunk)
		vectors = append(vectors, embedded[0])
	}

	if len(kept) == 0 {
		respondError(c, http.StatusInternalServerError,
			"Failed to create any embeddings. Check the model service.")
		return
	}

	docID := uuid.New().String()
	if err := s.store.Replace(ctx, docID, kept, vectors); err != nil {
		s.log.Error().Err(err).Str("document_id", docID).Msg("failed to store chunks")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"message":       fmt.Sprintf("Successfully processed %d chunks from %s", len(kept), filename),
		"chunks_count":  len(kept),
		"failed_chunks": failed,
		"filename":      filename,
	})
}

type queryRequest struct {
	Question string `json:"question"`
}

const queryPromptFormat = "Based on the following medical document context, please answer the question. " +
	"Be specific and cite relevant information from the context.\n\n" +
	"Context:\n%s\n\nQuestion: %s\n\nAnswer:"

// handleQuery answers a question against the indexed document chunks.
func (s *Server) handleQuery(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, "Document index is not configured")
		return
	}

	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "No question provided")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		respondError(c, http.StatusBadRequest, "Empty question provided")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.RequestTimeout)
	defer cancel()

	answer, retrieved, scores, status, errMsg := s.answerQuestion(ctx, question)
	if errMsg != "" {
		respondError(c, status, errMsg)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"question":          question,
		"answer":            answer,
		"retrieved_chunks":  retrieved,
		"similarity_scores": scores,
	})
}

// answerQuestion runs retrieval plus generation for one question. On failure
// it returns an HTTP status and caller-facing message.
func (s *Server) answerQuestion(ctx context.Context, question string) (answer string, retrieved []string, scores []float32, status int, errMsg string) {
	count, err := s.store.Count(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to count chunks")
		return "", nil, nil, http.StatusInternalServerError, "Internal server error"
	}
	if count == 0 {
		return "", nil, nil, http.StatusBadRequest, "No documents indexed. Please upload a file first."
	}

	embedded, err := s.model.EmbedTexts(ctx, []string{question})
	if err != nil || len(embedded) == 0 {
		s.log.Error().Err(err).Msg("question embedding failed")
		return "", nil, nil, http.StatusInternalServerError,
			"Failed to create question embedding. The model service might be busy or down."
	}

	k := s.config.QueryTopK
	if count < k {
		k = count
	}
	results, err := s.store.Search(ctx, embedded[0], k)
	if err != nil {
		s.log.Error().Err(err).Msg("chunk search failed")
		return "", nil, nil, http.StatusInternalServerError, "Internal server error"
	}

	for _, r := range results {
		retrieved = append(retrieved, r.Text)
		scores = append(scores, r.Score)
	}

	prompt := fmt.Sprintf(queryPromptFormat, strings.Join(retrieved, "\n\n"), question)
	answer, err = s.model.Generate(ctx, prompt)
	if err != nil {
		s.log.Error().Err(err).Msg("answer generation failed")
		return "", nil, nil, http.StatusInternalServerError,
			"Failed to get answer from chat model. The model service might be busy or the model is not available."
	}

	return answer, retrieved, scores, 0, ""
}

// handleClear deletes the persisted chunk index. Idempotent.
func (s *Server) handleClear(c *gin.Context) {
	if s.store == nil {
		respondError(c, http.StatusServiceUnavailable, "Document index is not configured")
		return
	}

	if err := s.store.Clear(c.Request.Context()); err != nil {
		s.log.Error().Err(err).Msg("failed to clear index")
		respondError(c, http.StatusInternalServerError, "Error clearing index")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Index cleared successfully",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	status := "healthy"
	modelStatus := "all models working"
	if err := s.model.Ping(ctx); err != nil {
		status = "degraded"
		modelStatus = err.Error()
	}

	chatModel, embedModel := s.model.Models()
	c.JSON(http.StatusOK, gin.H{
		"status":          status,
		"message":         "Medical report analyzer API is running",
		"ollama_status":   modelStatus,
		"embedding_model": embedModel,
		"chat_model":      chatModel,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	chunks := 0
	indexExists := false
	if s.store != nil {
		if n, err := s.store.Count(ctx); err == nil {
			chunks = n
			indexExists = n > 0
		}
	}

	ollamaWorking := s.model.Ping(ctx) == nil
	chatModel, embedModel := s.model.Models()

	c.JSON(http.StatusOK, gin.H{
		"index_exists":      indexExists,
		"chunks_count":      chunks,
		"supported_formats": ingestExtensions,
		"ollama_working":    ollamaWorking,
		"embedding_model":   embedModel,
		"chat_model":        chatModel,
		"kb_index_loaded":   s.knowledge.Ready(),
		"kb_entries":        s.knowledge.Size(),
	})
}
