// Package httpserver exposes the reconciliation engine over HTTP: uploads
// create analysis sessions, report endpoints read them back as JSON or as
// finished spreadsheets.
package httpserver

import (
	"context"
	"log"
	"net/http"
	"time"

	"licznik/internal/analysis"
	"licznik/internal/archive"
)

// Options carries the server's collaborators and settings.
type Options struct {
	Tokens         []string
	Version        string
	Sessions       *analysis.Store
	Archive        *archive.Store // optional; uploads are not persisted when nil
	MaxUploadBytes int64
}

// Server is the HTTP API server.
type Server struct {
	mux       *http.ServeMux
	tokens    []string
	version   string
	sessions  *analysis.Store
	archive   *archive.Store
	metrics   *metrics
	maxUpload int64

	httpSrv *http.Server
}

// NewServer creates a server with all routes registered.
func NewServer(opts Options) *Server {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	s := &Server{
		mux:       http.NewServeMux(),
		tokens:    opts.Tokens,
		version:   opts.Version,
		sessions:  opts.Sessions,
		archive:   opts.Archive,
		metrics:   newMetrics(),
		maxUpload: maxUpload,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// Health and metrics need no auth.
	s.mux.HandleFunc("/health", loggingMiddleware(s.handleHealth))
	s.mux.Handle("/metrics", s.metrics.handler())

	s.mux.HandleFunc("/uploads", loggingMiddleware(s.authMiddleware(s.handleUpload)))
	s.mux.HandleFunc("/reports/summary", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleSummary))))
	s.mux.HandleFunc("/reports/pivot", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handlePivot))))
	s.mux.HandleFunc("/reports/yoy", loggingMiddleware(s.authMiddleware(jsonContentTypeMiddleware(s.handleYearOverYear))))
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the server on addr and blocks until it stops.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("[HTTP] Starting server on %s", addr)
	log.Printf("[HTTP] Registered %d valid tokens", len(s.tokens))

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpSrv.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
