package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/pagegest/internal/chunker"
	"github.com/dgallion1/pagegest/internal/config"
	"github.com/dgallion1/pagegest/internal/doctree"
	"github.com/dgallion1/pagegest/internal/parser"
	"github.com/dgallion1/pagegest/internal/pipeline"
	"github.com/dgallion1/pagegest/internal/store"
)

// DocumentStore is the read and delete side of the document store.
type DocumentStore interface {
	ListDocuments(ctx context.Context, containerKey string) ([]store.DocumentInfo, error)
	Document(ctx context.Context, id string) (*doctree.Record, error)
	Chunks(ctx context.Context, documentID string) ([]doctree.VectorChunk, error)
	DeleteDocument(ctx context.Context, id string) (bool, error)
}

// RemoteDeleter removes a document from a remote sink.
type RemoteDeleter interface {
	Delete(ctx context.Context, meta doctree.DocMeta, contentHash string) error
}

// Deps are the collaborators the handlers use. Documents and Remote may be
// nil, in which case the endpoints that need them report unavailable.
type Deps struct {
	Orchestrator *pipeline.Orchestrator
	Parser       *parser.Parser
	Chunker      *chunker.Chunker
	Documents    DocumentStore
	Remote       RemoteDeleter
}

// Server is the HTTP API server for pagegest.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	if deps.Parser == nil {
		deps.Parser = parser.New(parser.WithLogger(log))
	}
	if deps.Chunker == nil {
		deps.Chunker = chunker.New(chunker.Config{MaxChars: cfg.ChunkMaxChars, BaseURL: cfg.PageBaseURL}, log)
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/parse", s.handleParse)
		r.Post("/api/chunk", s.handleChunk)

		r.Post("/api/ingest", s.handleIngest)
		r.Get("/api/ingest/{jobID}/status", s.handleIngestStatus)
		r.Post("/api/ingest/batch", s.handleBatchIngest)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Get("/api/documents/{docID}/chunks", s.handleDocumentChunks)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Get("/api/stats/pipeline", s.handlePipelineStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
