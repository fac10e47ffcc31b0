// Package server exposes the analysis pipeline and the document-chat index
// over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/internal/types"
	"github.com/medlens/medlens/pkg/processor"
)

// Analyzer runs the report analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, data []byte, format string) (*models.AnalysisResult, error)
}

// ModelService is the slice of the LLM client the server needs.
type ModelService interface {
	types.Embedder
	types.Generator
	GenerateStream(ctx context.Context, prompt string, fn func(chunk string) error) error
	Ping(ctx context.Context) error
	Models() (chat, embed string)
}

// KnowledgeStatus reports knowledge-base readiness for the status endpoint.
type KnowledgeStatus interface {
	Ready() bool
	Size() int
}

type Config struct {
	Host           string
	Port           int
	CORSOrigins    []string
	RequestTimeout time.Duration
	MaxUploadMB    int
	QueryTopK      int
}

type Server struct {
	config    Config
	engine    *gin.Engine
	analyzer  Analyzer
	extractor types.TextExtractor
	chunker   processor.Processor
	// store is nil when no database is configured; the chat endpoints then
	// answer 503.
	store     types.ChunkStore
	model     ModelService
	knowledge KnowledgeStatus
	log       zerolog.Logger
}

func New(config Config, analyzer Analyzer, extractor types.TextExtractor, chunker processor.Processor,
	store types.ChunkStore, model ModelService, kb KnowledgeStatus, log zerolog.Logger) *Server {

	if config.RequestTimeout == 0 {
		config.RequestTimeout = 120 * time.Second
	}
	if config.MaxUploadMB == 0 {
		config.MaxUploadMB = 16
	}
	if config.QueryTopK == 0 {
		config.QueryTopK = 3
	}

	s := &Server{
		config:    config,
		analyzer:  analyzer,
		extractor: extractor,
		chunker:   chunker,
		store:     store,
		model:     model,
		knowledge: kb,
		log:       log,
	}
	s.engine = s.buildEngine()
	return s
}

func (s *Server) buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())

	corsConfig := cors.DefaultConfig()
	if len(s.config.CORSOrigins) > 0 {
		corsConfig.AllowOrigins = s.config.CORSOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	engine.Use(cors.New(corsConfig))

	engine.MaxMultipartMemory = int64(s.config.MaxUploadMB) << 20

	engine.GET("/health", s.handleHealth)
	engine.GET("/status", s.handleStatus)
	engine.POST("/upload", s.handleUpload)
	engine.POST("/ingest", s.handleIngest)
	engine.POST("/query", s.handleQuery)
	engine.POST("/clear", s.handleClear)
	engine.GET("/ws", s.handleWebSocket)

	return engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run blocks serving HTTP until the context is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
