package controller

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Prober checks the execution backend's metadata endpoint.
type Prober interface {
	Probe(ctx context.Context) (int, error)
}

// HealthController serves liveness and readiness probes.
type HealthController struct {
	prober Prober
}

// NewHealthController creates a new HealthController.
func NewHealthController(prober Prober) *HealthController {
	return &HealthController{prober: prober}
}

// Healthz always succeeds once the process is serving.
func (h *HealthController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// backendProbe reports the outcome of the execution backend probe.
type backendProbe struct {
	Reachable bool   `json:"reachable"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Readyz succeeds only if the execution backend answers its metadata
// endpoint within the probe timeout.
func (h *HealthController) Readyz(c *gin.Context) {
	status, err := h.prober.Probe(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ok": false,
			"judge0": backendProbe{
				Reachable: false,
				Status:    status,
				Error:     err.Error(),
			},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
