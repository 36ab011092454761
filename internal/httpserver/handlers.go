package httpserver

import (
	"net/http"

	"licznik/internal/analysis"
)

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	respondJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Version:  s.version,
		Sessions: s.sessions.Len(),
	})
}

// session resolves a request's session id, writing the error response itself
// when the id is missing or unknown.
func (s *Server) session(w http.ResponseWriter, id string) (*analysis.Session, bool) {
	if id == "" {
		respondError(w, http.StatusBadRequest, "field 'sessionId' is required")
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		respondError(w, http.StatusNotFound, analysis.ErrSessionNotFound.Error())
		return nil, false
	}
	return sess, true
}
