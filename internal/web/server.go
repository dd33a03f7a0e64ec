package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pagelift/pagelift/internal/experiments"
	"github.com/pagelift/pagelift/internal/ports"
)

// Server exposes the experimentation core as a JSON API. Authentication
// is an upstream concern; the caller identity arrives in the X-User-ID
// header set by the gateway.
type Server struct {
	router  *http.ServeMux
	port    int
	service *experiments.Service
	logger  ports.Logger
}

func NewServer(port int, service *experiments.Service, logger ports.Logger) *Server {
	s := &Server{
		router:  http.NewServeMux(),
		port:    port,
		service: service,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.HandleFunc("GET /api/experiments", s.handleListExperiments)
	s.router.HandleFunc("POST /api/experiments", s.handleCreateExperiment)
	s.router.HandleFunc("GET /api/experiments/{id}", s.handleGetExperiment)
	s.router.HandleFunc("PATCH /api/experiments/{id}", s.handlePatchExperiment)
	s.router.HandleFunc("DELETE /api/experiments/{id}", s.handleDeleteExperiment)
	s.router.HandleFunc("POST /api/experiments/suggest", s.handleSuggestVariants)
}

// Handler returns the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	fmt.Printf("Starting server at http://localhost:%d\n", s.port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(fmt.Sprintf("Server shutdown error: %v", err))
		}
	}()

	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
