package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"Indicadores/internal/domain/models"
	"Indicadores/internal/handler"
	"Indicadores/internal/render"
	"Indicadores/internal/service/ratelimit"
	"Indicadores/internal/usecase"
	xhttp "Indicadores/pkg/http"
	xlogger "Indicadores/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// DashboardHandler serves the server-rendered dashboard. Every POST applies one transition
// to the session and redirects back to the page.
type DashboardHandler struct {
	logger   *xlogger.Logger
	registry *usecase.SessionRegistry
	pages    *render.PageBuilder
	ttl      time.Duration
	rl       *ratelimit.Limiter
}

func NewDashboardHandler(logger *xlogger.Logger, registry *usecase.SessionRegistry, pages *render.PageBuilder, ttl time.Duration, rl *ratelimit.Limiter) *DashboardHandler {
	handler.RegisterValidators()
	return &DashboardHandler{
		logger:   logger.With(xlogger.String("handler", "web")),
		registry: registry,
		pages:    pages,
		ttl:      ttl,
		rl:       rl,
	}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	sess := handler.Sessions(h.registry, h.ttl)
	lim := ratelimit.Middleware(h.rl)

	e.GET("/", h.Index, lim, sess)
	e.POST("/refresh", h.Refresh, lim, sess)
	e.POST("/selection/:code", h.Toggle, lim, sess)
	e.POST("/detail/:code", h.OpenDetail, lim, sess)
	e.POST("/detail/year", h.DetailYear, lim, sess)
	e.POST("/detail/close", h.CloseDetail, sess)
	e.POST("/comparison/open", h.OpenComparison, lim, sess)
	e.POST("/comparison/year", h.ComparisonYear, lim, sess)
	e.POST("/comparison/close", h.CloseComparison, sess)
}

// Index renders the dashboard, loading the snapshot on the first visit or after a failure.
func (h *DashboardHandler) Index(c echo.Context) error {
	d := handler.Dashboard(c)
	d.EnsureSnapshot(c.Request().Context())

	page, err := h.pages.Build(d.State())
	if err != nil {
		h.logger.Warn("chart render failed", xlogger.String("session", d.ID()), xlogger.Error(err))
	}
	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "dashboard", page); err != nil {
		h.logger.Error("template render failed", xlogger.Error(err))
		return c.String(http.StatusInternalServerError, "Error interno")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (h *DashboardHandler) Refresh(c echo.Context) error {
	handler.Dashboard(c).LoadSnapshot(c.Request().Context())
	return back(c)
}

func (h *DashboardHandler) Toggle(c echo.Context) error {
	req := &models.CodeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.done(c, handler.Dashboard(c).ToggleSelection(c.Request().Context(), models.IndicatorCode(req.Code)))
}

func (h *DashboardHandler) OpenDetail(c echo.Context) error {
	req := &models.CodeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.done(c, handler.Dashboard(c).OpenDetail(c.Request().Context(), models.IndicatorCode(req.Code), req.Name))
}

func (h *DashboardHandler) DetailYear(c echo.Context) error {
	req := &models.YearForm{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.done(c, handler.Dashboard(c).SetDetailYear(c.Request().Context(), req.Year))
}

func (h *DashboardHandler) CloseDetail(c echo.Context) error {
	handler.Dashboard(c).CloseDetail()
	return back(c)
}

func (h *DashboardHandler) OpenComparison(c echo.Context) error {
	return h.done(c, handler.Dashboard(c).OpenComparison(c.Request().Context()))
}

func (h *DashboardHandler) ComparisonYear(c echo.Context) error {
	req := &models.YearForm{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return h.done(c, handler.Dashboard(c).SetComparisonYear(c.Request().Context(), req.Year))
}

func (h *DashboardHandler) CloseComparison(c echo.Context) error {
	handler.Dashboard(c).CloseComparison()
	return back(c)
}

// done redirects after a transition. A form posted against a view that has since closed, or
// a comparison with too few indicators, is not an error for the user: the page is shown as is.
func (h *DashboardHandler) done(c echo.Context, err error) error {
	if err == nil || errors.Is(err, models.ErrViewClosed) || errors.Is(err, models.ErrComparisonUnavailable) {
		return back(c)
	}
	return xhttp.AppErrorResponse(c, handler.AppError(err))
}

func back(c echo.Context) error {
	return c.Redirect(http.StatusSeeOther, "/")
}
