package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"document-reasoner/internal/models"
	"document-reasoner/internal/parser"
	"document-reasoner/internal/retriever"
)

// RunRequest is the document reasoning request body.
type RunRequest struct {
	Documents string   `json:"documents" binding:"required"`
	Questions []string `json:"questions" binding:"required,min=1"`
}

// RunResponse carries one answer string per question, in order.
type RunResponse struct {
	Answers []string `json:"answers"`
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Document Reasoning Service",
		"version": serviceVersion,
		"status":  "active",
		"endpoints": gin.H{
			"main":   "/hackrx/run",
			"health": "/health",
		},
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"components": gin.H{
			"chunker":  s.chunker != nil,
			"embedder": s.embedder != nil,
			"engine":   s.engine != nil,
		},
	})
}

func (s *Server) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body", err.Error())
		return
	}
	if err := validateRunRequest(&req); err != nil {
		respondBadRequest(c, err.Error(), nil)
		return
	}

	ctx := c.Request.Context()
	log.Info().
		Str("request_id", GetRequestID(c)).
		Str("document", req.Documents).
		Int("questions", len(req.Questions)).
		Msg("processing run request")

	documentText, err := parser.ProcessDocumentFromURL(ctx, req.Documents, s.cfg.Document.MaxFileSizeMB)
	if err != nil {
		log.Error().Err(err).Str("document", req.Documents).Msg("document processing failed")
		respondBadRequest(c, "failed to extract text from document", err.Error())
		return
	}

	// A fresh retriever per request: concurrent requests for different
	// documents must never share chunk or index state.
	rtr := retriever.New(s.chunker, s.embedder, s.cfg.RAG.SimilarityThreshold, s.cfg.RAG.TopK)
	if err := rtr.CreateVectorStore(ctx, documentText); err != nil {
		log.Error().Err(err).Msg("vector store creation failed")
		respondError(c, http.StatusBadGateway, "ingest_failed", "failed to index document", err.Error())
		return
	}

	answers := make([]string, 0, len(req.Questions))
	for _, question := range req.Questions {
		answers = append(answers, s.answerQuestion(ctx, rtr, question))
	}

	log.Info().Str("request_id", GetRequestID(c)).Int("answers", len(answers)).Msg("run request completed")
	c.JSON(http.StatusOK, RunResponse{Answers: answers})
}

// answerQuestion always produces an answer string. Failures are per
// question: a retrieval or generation error is logged and the deterministic
// rule tier answers instead, so one bad question never aborts the batch.
func (s *Server) answerQuestion(ctx context.Context, rtr *retriever.Retriever, question string) string {
	chunks, err := rtr.RetrieveRelevantChunks(ctx, question)
	if err != nil {
		log.Error().Err(err).Str("question", questionPrefix(question)).Msg("retrieval failed, answering without context")
		chunks = nil
	}

	d, err := s.engine.GenerateDecision(ctx, question, chunks)
	if err != nil {
		log.Error().Err(err).Str("question", questionPrefix(question)).Msg("generation failed, answering from rule tier")
		d = s.engine.FallbackDecision(question, chunks)
	}

	log.Debug().
		Str("question", questionPrefix(question)).
		Str("decision", d.Decision).
		Str("amount", d.Amount).
		Str("source_clause", questionPrefix(d.SourceClause)).
		Msg("question answered")

	return projectDecision(d)
}

// projectDecision is the boundary's string rendering of a Decision. All four
// fields are available here; this service renders decision plus
// justification.
func projectDecision(d models.Decision) string {
	return fmt.Sprintf("%s - %s", d.Decision, d.Justification)
}

func validateRunRequest(req *RunRequest) error {
	u, err := url.Parse(req.Documents)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("documents must be a valid http or https URL")
	}
	for i, question := range req.Questions {
		if strings.TrimSpace(question) == "" {
			return fmt.Errorf("question %d must be a non-empty string", i+1)
		}
	}
	return nil
}

func questionPrefix(s string) string {
	if len(s) > 100 {
		return s[:100]
	}
	return s
}
