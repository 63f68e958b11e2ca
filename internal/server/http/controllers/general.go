package controllers

import (
	"net/http"

	"github.com/rzbill/blinkhub/internal/runtime"
)

// GeneralController serves the liveness endpoint.
type GeneralController struct {
	rt *runtime.Runtime
}

// NewGeneralController creates a new general controller.
func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

// RegisterRoutes registers general routes with the given router.
func (c *GeneralController) RegisterRoutes(r Router) {
	r.Handle("/v1/healthz", http.HandlerFunc(c.handleHealth))
}

// handleHealth returns 200 {"status":"ok"} if the store answers, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
