package api

import (
	"errors"
	"net/http"

	"github.com/nkovalenko/tutorchat/internal/config"
	"github.com/nkovalenko/tutorchat/internal/llm"
)

// handleGetConfig returns the current configuration.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Get())
}

// handlePutConfig merges a partial update into the configuration and
// persists it. Section objects merge field-wise; scalars replace.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := decodeJSON(r, &updates); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	updated, err := s.cfg.Update(updates)
	if err != nil {
		if errors.Is(err, config.ErrFieldTooLong) || errors.Is(err, config.ErrConfigParse) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.log.Error("updating config", "error", err)
		jsonError(w, "failed to update configuration", http.StatusInternalServerError)
		return
	}

	s.log.Info("configuration updated")
	writeJSON(w, http.StatusOK, updated)
}

// handleGetModels lists the models available to the configured API key.
// The list is cached after the first successful fetch.
func (s *Server) handleGetModels(w http.ResponseWriter, r *http.Request) {
	s.modelsMu.Lock()
	defer s.modelsMu.Unlock()

	if len(s.models) == 0 {
		client := s.llmClient()
		defer client.Close()
		models, err := client.ListModels(r.Context())
		if err != nil {
			s.log.Warn("listing models", "error", err)
			models = []llm.ModelInfo{}
		}
		s.models = models
	}

	writeJSON(w, http.StatusOK, map[string]any{"models": s.models})
}
