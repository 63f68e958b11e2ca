package controllers

import (
	"net/http"

	motionsvc "github.com/rzbill/blinkhub/internal/services/motion"
)

// MotionController exposes the motion source and the snapshot relay.
type MotionController struct {
	svc *motionsvc.Service
}

// NewMotionController creates a new motion controller.
func NewMotionController(svc *motionsvc.Service) *MotionController {
	return &MotionController{svc: svc}
}

// RegisterRoutes registers motion routes with the given router.
func (c *MotionController) RegisterRoutes(r Router) {
	r.Handle("/v1/motion/source", http.HandlerFunc(c.handleSource))
	r.Handle("/v1/motion/snapshots", http.HandlerFunc(c.handleSnapshots))
	r.Handle("/v1/motion/snapshots/trim", http.HandlerFunc(c.handleTrim))
}

func (c *MotionController) handleSource(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		src, err := c.svc.Source(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, src)
	case http.MethodPut:
		var req sourceReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := c.svc.SaveSource(r.Context(), motionsvc.Source{Name: req.Name, URL: req.URL}); err != nil {
			writeServiceError(w, err)
			return
		}
		writeNoContent(w)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSnapshots lists snapshots newest first on GET and records one on POST.
func (c *MotionController) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		snaps, err := c.svc.Snapshots(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, map[string]any{"snapshots": snaps})
	case http.MethodPost:
		var req snapshotReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		snap, err := c.svc.RecordSnapshot(r.Context(), req.URL)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeCreated(w, snap)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (c *MotionController) handleTrim(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	n, err := c.svc.Trim(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, trimResp{Deleted: n})
}
