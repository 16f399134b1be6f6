package handlers

import (
	"net/http"
	"time"

	"github.com/hongminglow/erp-portal/internal/http/respond"
)

// HealthHandler returns uptime and build information.
type HealthHandler struct {
	startedAt time.Time
	version   string
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, version string) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, version: version}
}

// Register wires the handler into a ServeMux.
func (h *HealthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handle)
}

type healthStatus struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version,omitempty"`
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "ok", healthStatus{
		Status:  "ok",
		Uptime:  time.Since(h.startedAt).Truncate(time.Second).String(),
		Version: h.version,
	})
}
