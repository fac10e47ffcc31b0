package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Server.MaxUploadMB < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.max_upload_mb",
			Message: "max_upload_mb must be positive",
		})
	}

	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "Ollama base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if c.LLM.MaxRetries < 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_retries",
			Message: "max_retries must be positive",
		})
	}

	if c.LLM.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "llm.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.Database.URL != "" {
		if _, err := url.Parse(c.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	if c.Chunker.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Chunker.ChunkOverlap < 0 || c.Chunker.ChunkOverlap >= c.Chunker.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "chunker.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	if c.Retrieval.KnowledgeTopK < 1 || c.Retrieval.QueryTopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "retrieval",
			Message: "top_k values must be positive",
		})
	}

	return errors
}
