package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/medlens/medlens/internal/types"
	"github.com/medlens/medlens/pkg/config"
	"github.com/medlens/medlens/pkg/explain"
	"github.com/medlens/medlens/pkg/extract"
	"github.com/medlens/medlens/pkg/index"
	"github.com/medlens/medlens/pkg/knowledge"
	"github.com/medlens/medlens/pkg/llm"
	"github.com/medlens/medlens/pkg/pipeline"
	"github.com/medlens/medlens/pkg/processor"
	"github.com/medlens/medlens/pkg/retry"
	"github.com/medlens/medlens/pkg/store"
	"github.com/medlens/medlens/server"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	var (
		configPath string
		host       string
		port       int
		ollamaURL  string
		dbURL      string
		pretty     bool
	)
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&host, "host", "", "Listen host (overrides config)")
	flag.IntVar(&port, "port", 0, "Listen port (overrides config)")
	flag.StringVar(&ollamaURL, "ollama-url", "", "Ollama server URL (overrides config)")
	flag.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string (overrides config)")
	flag.BoolVar(&pretty, "pretty", false, "Human-readable log output")
	flag.Parse()

	log := newLogger(pretty)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Command line flags win over the file and the environment.
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if ollamaURL != "" {
		cfg.LLM.BaseURL = ollamaURL
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			log.Error().Str("field", e.Field).Msg(e.Message)
		}
		log.Fatal().Msg("invalid configuration")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func newLogger(pretty bool) zerolog.Logger {
	if pretty {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	model, err := llm.NewWithConfig(llm.ClientConfig{
		BaseURL:     cfg.LLM.BaseURL,
		ChatModel:   cfg.LLM.ChatModel,
		EmbedModel:  cfg.LLM.EmbedModel,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		RateLimit:   cfg.LLM.RateLimit,
		Retry: retry.Policy{
			MaxAttempts: cfg.LLM.MaxRetries,
			Delay:       cfg.LLM.RetryDelay,
		},
	})
	if err != nil {
		return err
	}

	extractor := extract.NewWithConfig(extract.Config{
		TesseractCmd: cfg.Extract.TesseractCmd,
	})

	retriever := knowledge.NewRetriever(ctx, model, index.NewMemory(), knowledge.Entries(), log)
	log.Info().Msg(retriever.Describe())

	explainer := explain.New(model, log)

	analyzer, err := pipeline.NewWithConfig(pipeline.Config{
		Extractor:     extractor,
		Retriever:     retriever,
		Explainer:     explainer,
		KnowledgeTopK: cfg.Retrieval.KnowledgeTopK,
		Logger:        log,
	})
	if err != nil {
		return err
	}

	// The chat endpoints need PostgreSQL; without it the analyzer still runs.
	var chunkStore *store.ChunkStore
	if cfg.Database.URL != "" {
		chunkStore, err = store.NewWithConfig(ctx, store.ChunkStoreConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
		})
		if err != nil {
			return err
		}
		defer chunkStore.Close()
	} else {
		log.Warn().Msg("no database configured, document chat endpoints disabled")
	}

	chunker := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
	})

	srv := server.New(server.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxUploadMB:    cfg.Server.MaxUploadMB,
		QueryTopK:      cfg.Retrieval.QueryTopK,
	}, analyzer, extractor, chunker, storeOrNil(chunkStore), model, retriever, log)

	log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting server")
	return srv.Run(ctx)
}

// storeOrNil keeps a nil *ChunkStore from becoming a non-nil interface.
func storeOrNil(cs *store.ChunkStore) types.ChunkStore {
	if cs == nil {
		return nil
	}
	return cs
}
