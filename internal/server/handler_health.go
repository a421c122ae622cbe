package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/me/contactbook/pkg/model"
)

// Version is reported by /healthz.
var Version = "0.1.0"

const upstreamProbeTimeout = 3 * time.Second

type upstreamStatus struct {
	URL       string `json:"url"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	GoVersion string         `json:"go_version"`
	Uptime    string         `json:"uptime"`
	API       upstreamStatus `json:"api"`
}

// handleHealth reports liveness and whether the remote API answers. An
// unreachable API makes the response 503 with status "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), upstreamProbeTimeout)
	defer cancel()

	up := upstreamStatus{URL: s.api.BaseURL(), Reachable: true}
	if err := s.api.Ping(ctx); err != nil {
		up.Reachable = false
		up.Error = err.Error()
	}

	health := healthResponse{
		Status:    "healthy",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		API:       up,
	}
	if !up.Reachable {
		health.Status = "degraded"
		s.logger.Warn("remote API unreachable", "url", up.URL, "error", up.Error)
		respondJSON(w, http.StatusServiceUnavailable, reqID, health, &model.APIError{
			Code:    model.ErrUpstream,
			Message: "remote API unreachable",
		})
		return
	}
	respondOK(w, reqID, health)
}
