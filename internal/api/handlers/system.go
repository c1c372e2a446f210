package handlers

import (
	"net/http"

	"github.com/ramonehamilton/LoR-Companion/internal/api/response"
	"github.com/ramonehamilton/LoR-Companion/internal/tracker"
	"github.com/ramonehamilton/LoR-Companion/internal/version"
)

// SystemHandler reports service health and metrics.
type SystemHandler struct {
	tracker Tracker
	clients func() int
}

// NewSystemHandler creates a new SystemHandler. clients reports the number of
// connected WebSocket clients and may be nil.
func NewSystemHandler(tracker Tracker, clients func() int) *SystemHandler {
	return &SystemHandler{tracker: tracker, clients: clients}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string          `json:"status"`
	Service   string          `json:"service"`
	Version   string          `json:"version"`
	Tracker   *tracker.Status `json:"tracker,omitempty"`
	WSClients int             `json:"wsClients"`
}

// Health returns the service status.
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:  "healthy",
		Service: "lor-companion-api",
		Version: version.GetVersion(),
	}
	if h.tracker != nil {
		status := h.tracker.Status()
		resp.Tracker = &status
	}
	if h.clients != nil {
		resp.WSClients = h.clients()
	}
	response.JSON(w, http.StatusOK, resp)
}

// GetMetrics returns the tracker metrics.
func (h *SystemHandler) GetMetrics(w http.ResponseWriter, _ *http.Request) {
	if h.tracker == nil {
		response.ServiceUnavailable(w, errNoTracker)
		return
	}
	response.Success(w, h.tracker.Metrics().GetStats())
}
