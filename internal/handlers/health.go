package handlers

import (
	"net/http"
	"os"
)

type healthResponse struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthCheck reports overall service health.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, healthResponse{Status: "ok"})
}

// LivenessCheck reports that the process is running.
func (h *Handlers) LivenessCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, healthResponse{Status: "alive"})
}

// ReadinessCheck reports whether the service can do useful work, which
// here means the media root is still an accessible directory.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if info, err := os.Stat(h.config.MediaDir); err != nil || !info.IsDir() {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, healthResponse{Status: "unavailable", Detail: "media directory not accessible"})
		return
	}
	writeJSON(w, healthResponse{Status: "ready"})
}
