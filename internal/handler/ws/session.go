package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"Indicadores/internal/domain/models"
	"Indicadores/internal/handler"
	"Indicadores/internal/usecase"
	xhttp "Indicadores/pkg/http"
	xlogger "Indicadores/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// errorMessage is pushed when an action is rejected. State pushes carry no "error" key.
type errorMessage struct {
	Error interface{} `json:"error"`
}

// SessionHandler streams the session state over a websocket and applies the actions the
// client sends back.
type SessionHandler struct {
	logger       *xlogger.Logger
	registry     *usecase.SessionRegistry
	ttl          time.Duration
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewSessionHandler(logger *xlogger.Logger, registry *usecase.SessionRegistry, ttl, pingInterval time.Duration) *SessionHandler {
	handler.RegisterValidators()
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &SessionHandler{
		logger:       logger.With(xlogger.String("handler", "ws")),
		registry:     registry,
		ttl:          ttl,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

func (h *SessionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Serve, handler.Sessions(h.registry, h.ttl))
}

// Serve upgrades the request and runs the connection until either side closes it.
func (h *SessionHandler) Serve(c echo.Context) error {
	d := handler.Dashboard(c)

	// The upgrader writes its own response, so a freshly issued session cookie is passed on.
	hdr := http.Header{}
	for _, v := range c.Response().Header().Values("Set-Cookie") {
		hdr.Add("Set-Cookie", v)
	}
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), hdr)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	states, cancel := d.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	errs := make(chan errorMessage, 8)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer stop()
		// Closing unblocks the reader when the writer gives up first.
		defer conn.Close()
		h.writeLoop(ctx, conn, d.State(), states, errs)
	}()

	h.readLoop(ctx, conn, d, errs)
	stop()
	wg.Wait()
	return nil
}

func (h *SessionHandler) writeLoop(ctx context.Context, conn *websocket.Conn, initial usecase.State, states <-chan usecase.State, errs <-chan errorMessage) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	write := func(v interface{}) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			h.logger.Debug("websocket write failed", xlogger.Error(err))
			return false
		}
		return true
	}

	last := initial.Version
	if !write(initial) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if st.Version <= last {
				continue
			}
			last = st.Version
			if !write(st) {
				return
			}
		case m := <-errs:
			if !write(m) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *SessionHandler) readLoop(ctx context.Context, conn *websocket.Conn, d *usecase.Dashboard, errs chan<- errorMessage) {
	conn.SetReadLimit(maxMessageSize)
	pongWait := 2 * h.pingInterval
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var req models.ActionRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", xlogger.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		if verr := xhttp.ValidateStruct(&req); verr != nil {
			report(ctx, errs, errorMessage{Error: verr})
			continue
		}
		// Actions run concurrently like clicks in a browser; their results arrive as state pushes.
		go func(req models.ActionRequest) {
			if err := Dispatch(ctx, d, req); err != nil {
				report(ctx, errs, errorMessage{Error: []*xhttp.AppError{handler.AppError(err)}})
			}
		}(req)
	}
}

func report(ctx context.Context, errs chan<- errorMessage, m errorMessage) {
	select {
	case errs <- m:
	case <-ctx.Done():
	}
}

// Dispatch applies one validated action to d.
func Dispatch(ctx context.Context, d *usecase.Dashboard, req models.ActionRequest) error {
	d.Touch()
	code := models.IndicatorCode(req.Code)
	switch req.Action {
	case models.ActionRefresh:
		d.LoadSnapshot(ctx)
		return nil
	case models.ActionToggle:
		return d.ToggleSelection(ctx, code)
	case models.ActionOpenDetail:
		return d.OpenDetail(ctx, code, req.Name)
	case models.ActionDetailYear:
		return d.SetDetailYear(ctx, req.Year)
	case models.ActionCloseDetail:
		d.CloseDetail()
		return nil
	case models.ActionOpenComparison:
		return d.OpenComparison(ctx)
	case models.ActionComparisonYear:
		return d.SetComparisonYear(ctx, req.Year)
	case models.ActionCloseComparison:
		d.CloseComparison()
		return nil
	default:
		return xhttp.BadRequestErrorf("unknown action %q", req.Action)
	}
}
