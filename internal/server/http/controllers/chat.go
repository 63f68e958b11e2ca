package controllers

import (
	"context"
	"errors"
	"net/http"

	chatsvc "github.com/rzbill/blinkhub/internal/services/chat"
)

// ChatController exposes the chat integration settings and lifecycle.
type ChatController struct {
	mgr *chatsvc.Manager
}

// NewChatController creates a new chat controller.
func NewChatController(mgr *chatsvc.Manager) *ChatController {
	return &ChatController{mgr: mgr}
}

// RegisterRoutes registers chat routes with the given router.
func (c *ChatController) RegisterRoutes(r Router) {
	r.Handle("/v1/chat/token", http.HandlerFunc(c.handleToken))
	r.Handle("/v1/chat/notify", http.HandlerFunc(c.handleNotify))
	r.Handle("/v1/chat/status", http.HandlerFunc(c.handleStatus))
	r.Handle("/v1/chat/connect", http.HandlerFunc(c.handleConnect))
	r.Handle("/v1/chat/disconnect", http.HandlerFunc(c.handleDisconnect))
	r.Handle("/v1/chat/restart", http.HandlerFunc(c.handleRestart))
}

func (c *ChatController) handleToken(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		_, err := c.mgr.Token(r.Context())
		if err != nil && !errors.Is(err, chatsvc.ErrNotConfigured) {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, tokenResp{Configured: err == nil})
	case http.MethodPut, http.MethodPost:
		var req tokenReq
		if err := decodeBody(r, &req); err != nil || req.Token == "" {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := c.mgr.SaveToken(r.Context(), req.Token); err != nil {
			writeServiceError(w, err)
			return
		}
		writeNoContent(w)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleNotify reads or writes the default target on GET/PUT and sends a
// message to it on POST.
func (c *ChatController) handleNotify(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		t, err := c.mgr.NotifyTarget(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, t)
	case http.MethodPut:
		var req notifyTargetReq
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := c.mgr.SaveNotifyTarget(r.Context(), chatsvc.Target{ID: req.ID, Type: req.Type}); err != nil {
			writeServiceError(w, err)
			return
		}
		writeNoContent(w)
	case http.MethodPost:
		var req notifyTextReq
		if err := decodeBody(r, &req); err != nil || req.Text == "" {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := c.mgr.Notify(r.Context(), req.Text); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (c *ChatController) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, c.mgr.Status())
}

func (c *ChatController) handleConnect(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.mgr.Connect)
}

func (c *ChatController) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.mgr.Disconnect)
}

func (c *ChatController) handleRestart(w http.ResponseWriter, r *http.Request) {
	c.lifecycle(w, r, c.mgr.Restart)
}

func (c *ChatController) lifecycle(w http.ResponseWriter, r *http.Request, op func(context.Context) error) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if err := op(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, c.mgr.Status())
}
