package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"document-reasoner/internal/chunker"
	"document-reasoner/internal/config"
	"document-reasoner/internal/decision"
	"document-reasoner/internal/embedding"
	"document-reasoner/internal/llmservice"
)

const serviceVersion = "1.0.0"

// Server wires the read-only pipeline collaborators to the HTTP boundary.
// The chunker, embedder and engine are shared across requests; per-request
// document state lives in a retriever constructed inside the handler.
type Server struct {
	cfg      *config.Config
	chunker  *chunker.Chunker
	embedder *embedding.Embedder
	engine   *decision.Engine
	router   *gin.Engine
}

func New(cfg *config.Config) (*Server, error) {
	chk, err := chunker.New(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	emb, err := embedding.New(&cfg.EmbedLLM, cfg.RAG.VectorDimension)
	if err != nil {
		return nil, err
	}

	var generator decision.Generator
	if !cfg.LLM.ForceFallback {
		client, err := llmservice.New(&cfg.LLM)
		if err != nil {
			return nil, err
		}
		generator = client
	}

	s := &Server{
		cfg:      cfg,
		chunker:  chk,
		embedder: emb,
		engine:   decision.NewEngine(generator, cfg.LLM.ForceFallback),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	if !s.cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), cors.New(s.corsConfig()))

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.POST("/hackrx/run", s.handleRun)

	s.router = router
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	origins := s.cfg.Server.CORSOrigins
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", RequestIDHeader)
	return cfg
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	return s.router.Run(":" + s.cfg.Server.Port)
}
