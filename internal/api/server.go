// Package api exposes the tutoring backend over HTTP: runtime config,
// dialog management, and assessment with PDF export.
package api

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nkovalenko/tutorchat"
	"github.com/nkovalenko/tutorchat/internal/config"
	"github.com/nkovalenko/tutorchat/internal/llm"
	"github.com/nkovalenko/tutorchat/internal/storage"
)

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Manager
	store  *storage.Store
	pool   *tutorchat.ExportPool
	log    *slog.Logger

	modelsMu sync.Mutex
	models   []llm.ModelInfo
}

// NewServer creates and configures the HTTP server.
func NewServer(cfg *config.Manager, store *storage.Store, pool *tutorchat.ExportPool, log *slog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		store: store,
		pool:  pool,
		log:   log,
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

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/config", s.handleGetConfig)
		r.Put("/config", s.handlePutConfig)
		r.Get("/models", s.handleGetModels)

		r.Post("/dialogs", s.handleCreateDialog)
		r.Get("/dialogs/{conversationID}", s.handleGetDialog)
		r.Get("/dialogs/{conversationID}/messages", s.handleGetMessages)
		r.Post("/dialogs/{conversationID}/messages", s.handlePostMessage)

		r.Get("/conversations", s.handleListConversations)
		r.Get("/conversations/{conversationID}/export", s.handleExportConversation)

		r.Post("/estimation", s.handleEstimation)
		r.Post("/estimation/export", s.handleEstimationExport)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// llmClient builds a client for the currently configured model. Built per
// request so config updates take effect without a restart.
func (s *Server) llmClient() *llm.Client {
	cfg := s.cfg.Get()
	return llm.NewClient(llm.Config{Model: cfg.Model.Name}, s.log)
}
