package controllers

import (
	"net/http"

	"github.com/rzbill/blinkhub/internal/runtime"
	chatsvc "github.com/rzbill/blinkhub/internal/services/chat"
	motionsvc "github.com/rzbill/blinkhub/internal/services/motion"
	settingsvc "github.com/rzbill/blinkhub/internal/services/settings"
)

// Router is where controllers register their handlers. The server wraps the
// mux so every route gets the same middleware.
type Router interface {
	Handle(pattern string, h http.Handler)
}

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general  *GeneralController
	settings *SettingsController
	chat     *ChatController
	motion   *MotionController
}

// NewControllerRegistry creates a new controller registry.
func NewControllerRegistry(rt *runtime.Runtime, settings *settingsvc.Service, chat *chatsvc.Manager, motion *motionsvc.Service) *ControllerRegistry {
	return &ControllerRegistry{
		general:  NewGeneralController(rt),
		settings: NewSettingsController(settings),
		chat:     NewChatController(chat),
		motion:   NewMotionController(motion),
	}
}

// RegisterAllRoutes registers all controller routes with the given router.
func (r *ControllerRegistry) RegisterAllRoutes(router Router) {
	r.general.RegisterRoutes(router)
	r.settings.RegisterRoutes(router)
	r.chat.RegisterRoutes(router)
	r.motion.RegisterRoutes(router)
}
