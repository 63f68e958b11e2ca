package controllers

import (
	"net/http"

	settingsvc "github.com/rzbill/blinkhub/internal/services/settings"
)

// SettingsController exposes the raw key/value settings.
//
// GET /v1/settings accepts ?prefix= to narrow by key prefix and ?filter= for a
// CEL expression over key, value and json.
type SettingsController struct {
	svc *settingsvc.Service
}

// NewSettingsController creates a new settings controller.
func NewSettingsController(svc *settingsvc.Service) *SettingsController {
	return &SettingsController{svc: svc}
}

// RegisterRoutes registers settings routes with the given router.
func (c *SettingsController) RegisterRoutes(r Router) {
	r.Handle("/v1/settings", http.HandlerFunc(c.handleList))
	r.Handle("/v1/settings/{key...}", http.HandlerFunc(c.handleKey))
}

func (c *SettingsController) handleList(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	var (
		recs map[string]string
		err  error
	)
	switch {
	case q.Get("filter") != "":
		recs, err = c.svc.Match(r.Context(), q.Get("prefix"), q.Get("filter"))
	case q.Get("prefix") != "":
		recs, err = c.svc.ByPrefix(r.Context(), q.Get("prefix"))
	default:
		recs, err = c.svc.All(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, map[string]any{"records": recs, "count": len(recs)})
}

func (c *SettingsController) handleKey(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	switch r.Method {
	case http.MethodGet:
		v, err := c.svc.Get(r.Context(), key)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, settingResp{Key: key, Value: v})
	case http.MethodPut:
		var req settingPutReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := c.svc.Put(r.Context(), key, req.Value); err != nil {
			writeServiceError(w, err)
			return
		}
		writeNoContent(w)
	case http.MethodDelete:
		if err := c.svc.Delete(r.Context(), key); err != nil {
			writeServiceError(w, err)
			return
		}
		writeNoContent(w)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
