package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Indicadores/internal/domain/models"
	"Indicadores/internal/handler/handlertest"
	xlogger "Indicadores/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type pushed struct {
	Version   uint64                  `json:"version"`
	Selection []models.SelectionEntry `json:"selection"`
	Snapshot  struct {
		State string `json:"state"`
	} `json:"snapshot"`
	Error json.RawMessage `json:"error"`
}

func dial(t *testing.T) *websocket.Conn {
	t.Helper()
	up := handlertest.NewUpstream(t)
	reg := handlertest.Registry(t, handlertest.Client(up))
	e := echo.New()
	NewSessionHandler(xlogger.Nop(), reg, time.Hour, time.Minute).RegisterRoutes(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if len(resp.Cookies()) == 0 {
		t.Fatalf("handshake should issue a session cookie")
	}
	return conn
}

func next(t *testing.T, conn *websocket.Conn, match func(pushed) bool) pushed {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m pushed
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(m) {
			return m
		}
	}
}

func TestPushesStateAfterActions(t *testing.T) {
	conn := dial(t)
	first := next(t, conn, func(pushed) bool { return true })
	if first.Error != nil {
		t.Fatalf("first push should be the state")
	}

	if err := conn.WriteJSON(models.ActionRequest{Action: models.ActionRefresh}); err != nil {
		t.Fatalf("write: %v", err)
	}
	next(t, conn, func(m pushed) bool { return m.Snapshot.State == "ready" })

	if err := conn.WriteJSON(models.ActionRequest{Action: models.ActionToggle, Code: "dolar"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	m := next(t, conn, func(m pushed) bool { return len(m.Selection) == 1 })
	if m.Selection[0].Name != "Dólar observado" || m.Selection[0].Color != models.ColorFor(models.CodeDolar) {
		t.Fatalf("unexpected selection %+v", m.Selection)
	}
}

func TestRejectsInvalidActions(t *testing.T) {
	conn := dial(t)
	next(t, conn, func(pushed) bool { return true })

	for _, req := range []models.ActionRequest{
		{Action: "explode"},
		{Action: models.ActionToggle, Code: "nada"},
		{Action: models.ActionOpenComparison},
	} {
		if err := conn.WriteJSON(req); err != nil {
			t.Fatalf("write: %v", err)
		}
		next(t, conn, func(m pushed) bool { return m.Error != nil })
	}
}
