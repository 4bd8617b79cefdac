package server

import (
	"net/http"
)

type apiInfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

func (s *Server) RootHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, apiInfoResponse{
			Name:    s.config.GetAppName(),
			Version: s.config.GetVersion(),
			Status:  "running",
		})
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}
}

// PreflightHandler answers OPTIONS requests that carry no Origin header.
// CorsMiddleware handles the rest before this is reached.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
