package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host           string        `yaml:"host"`
		Port           int           `yaml:"port"`
		CORSOrigins    []string      `yaml:"cors_origins"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxUploadMB    int           `yaml:"max_upload_mb"`
	} `yaml:"server"`

	LLM struct {
		BaseURL     string        `yaml:"base_url"`
		ChatModel   string        `yaml:"chat_model"`
		EmbedModel  string        `yaml:"embed_model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float64       `yaml:"temperature"`
		MaxRetries  int           `yaml:"max_retries"`
		RetryDelay  time.Duration `yaml:"retry_delay"`
		RateLimit   float64       `yaml:"rate_limit"`
	} `yaml:"llm"`

	Database struct {
		URL       string `yaml:"url"`
		TableName string `yaml:"table_name"`
		VectorDim int    `yaml:"vector_dim"`
	} `yaml:"database"`

	Chunker struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"chunker"`

	Retrieval struct {
		KnowledgeTopK int `yaml:"knowledge_top_k"`
		QueryTopK     int `yaml:"query_top_k"`
	} `yaml:"retrieval"`

	Extract struct {
		TesseractCmd string `yaml:"tesseract_cmd"`
	} `yaml:"extract"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/medlens/config.yaml"),
			"/etc/medlens/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	mergeWithEnv(&config)
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.Server.Host == "" {
		config.Server.Host = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 5001
	}
	if config.Server.RequestTimeout == 0 {
		config.Server.RequestTimeout = 120 * time.Second
	}
	if config.Server.MaxUploadMB == 0 {
		config.Server.MaxUploadMB = 16
	}

	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "http://localhost:11434"
	}
	if config.LLM.ChatModel == "" {
		config.LLM.ChatModel = "llama3.2"
	}
	if config.LLM.EmbedModel == "" {
		config.LLM.EmbedModel = "nomic-embed-text"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}
	if config.LLM.MaxRetries == 0 {
		config.LLM.MaxRetries = 3
	}
	if config.LLM.RetryDelay == 0 {
		config.LLM.RetryDelay = 2 * time.Second
	}
	if config.LLM.RateLimit == 0 {
		config.LLM.RateLimit = 4
	}

	if config.Database.TableName == "" {
		config.Database.TableName = "report_chunks"
	}
	if config.Database.VectorDim == 0 {
		config.Database.VectorDim = 768
	}

	if config.Chunker.ChunkSize == 0 {
		config.Chunker.ChunkSize = 500
	}
	if config.Chunker.ChunkOverlap == 0 {
		config.Chunker.ChunkOverlap = 50
	}

	if config.Retrieval.KnowledgeTopK == 0 {
		config.Retrieval.KnowledgeTopK = 2
	}
	if config.Retrieval.QueryTopK == 0 {
		config.Retrieval.QueryTopK = 3
	}

	if config.Extract.TesseractCmd == "" {
		config.Extract.TesseractCmd = "tesseract"
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Database.URL = dbURL
	}
	if cmd := os.Getenv("TESSERACT_CMD"); cmd != "" {
		config.Extract.TesseractCmd = cmd
	}
}
