package api

import (
	"time"

	"Indicadores/internal/handler"
	"Indicadores/internal/usecase"
	xhttp "Indicadores/pkg/http"

	"github.com/labstack/echo/v4"
)

// SessionHandler exposes the state of the caller's dashboard session.
type SessionHandler struct {
	registry *usecase.SessionRegistry
	ttl      time.Duration
}

func NewSessionHandler(registry *usecase.SessionRegistry, ttl time.Duration) *SessionHandler {
	return &SessionHandler{registry: registry, ttl: ttl}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/session", h.State, handler.Sessions(h.registry, h.ttl))
}

// State returns the full session state, the same document the websocket pushes.
func (h *SessionHandler) State(c echo.Context) error {
	return xhttp.SuccessResponse(c, handler.Dashboard(c).State())
}
