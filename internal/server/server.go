// Package server exposes the backtest engine over HTTP as a thin JSON API:
// one entry point that runs a backtest and read-only projections of the
// most recent completed result.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/petroquant/crudesim/internal/engine"
	"github.com/petroquant/crudesim/internal/logger"
	"github.com/petroquant/crudesim/internal/store"
	"github.com/petroquant/crudesim/pkg/errors"
	"go.uber.org/zap"
)

// Server wires the runner and the result store into HTTP handlers.
type Server struct {
	runner     *engine.Runner
	results    *store.ResultStore
	defaults   engine.Config
	confidence float64
	log        *logger.Logger
}

// NewServer creates a server. The defaults config fills request fields the
// caller omits; confidence is the opaque policy-confidence pass-through
// reported on recommendations.
func NewServer(runner *engine.Runner, results *store.ResultStore, defaults engine.Config, confidence float64, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Server{
		runner:     runner,
		results:    results,
		defaults:   defaults,
		confidence: confidence,
		log:        log,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api/backtest").Subrouter()
	api.HandleFunc("/run", s.handleRunBacktest).Methods(http.MethodPost)
	api.HandleFunc("/trades", s.handleTradeHistory).Methods(http.MethodGet)
	api.HandleFunc("/equity-curve", s.handleEquityCurve).Methods(http.MethodGet)
	api.HandleFunc("/performance", s.handlePerformance).Methods(http.MethodGet)
	api.HandleFunc("/recommendation", s.handleRecommendation).Methods(http.MethodGet)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	return router
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Failed to encode response", zap.Error(err))
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Category  string `json:"category"`
	Retryable bool   `json:"retryable"`
}

// writeError maps the error taxonomy onto status codes: configuration and
// data errors are client errors, a missing result is 404, collaborator
// failures are retryable server errors distinct from data errors.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	retryable := false

	category := errors.GetCategory(err)

	switch {
	case errors.HasCode(err, errors.ErrCodeDataNotFound):
		status = http.StatusNotFound
	case category == errors.CategoryConfiguration, category == errors.CategoryData:
		status = http.StatusBadRequest
	case category == errors.CategoryCollaborator:
		status = http.StatusServiceUnavailable
		retryable = true
	}

	s.log.Warn("Request failed",
		zap.Int("status", status),
		zap.String("category", string(category)),
		zap.Error(err),
	)

	s.writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Category:  string(category),
		Retryable: retryable,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
