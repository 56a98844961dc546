package api

import (
	models "Indicadores/internal/domain/models"
	drepo "Indicadores/internal/domain/repository"
	"Indicadores/internal/handler"
	"Indicadores/internal/service/ratelimit"
	"Indicadores/internal/usecase"
	xhttp "Indicadores/pkg/http"
	xlogger "Indicadores/pkg/logger"
	xutil "Indicadores/pkg/util"

	"github.com/labstack/echo/v4"
)

// IndicatorsHandler serves the JSON API over the indicator source.
type IndicatorsHandler struct {
	logger     *xlogger.Logger
	source     drepo.IndicatorSource
	comparator *usecase.Comparator
	metrics    drepo.Metrics
	rl         *ratelimit.Limiter
}

func NewIndicatorsHandler(logger *xlogger.Logger, source drepo.IndicatorSource, metrics drepo.Metrics, rl *ratelimit.Limiter) *IndicatorsHandler {
	handler.RegisterValidators()
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	return &IndicatorsHandler{
		logger:     logger.With(xlogger.String("handler", "api")),
		source:     source,
		comparator: usecase.NewComparator(source),
		metrics:    metrics,
		rl:         rl,
	}
}

func (h *IndicatorsHandler) RegisterRoutes(e *echo.Echo) {
	lim := ratelimit.Middleware(h.rl)
	e.GET("/api/indicators", h.Snapshot, lim)
	e.GET("/api/indicators/:code", h.History, lim)
	e.GET("/api/indicators/:code/date/:date", h.ByDate, lim)
	e.GET("/api/compare", h.Compare, lim)
}

// Snapshot returns the latest value of every known indicator, sorted by name.
func (h *IndicatorsHandler) Snapshot(c echo.Context) error {
	snap, err := h.source.FetchSnapshot(c.Request().Context())
	if err != nil {
		return h.fail(c, "snapshot", err)
	}
	return xhttp.ListResponse(c, snap.Sorted(), int64(len(snap)))
}

// History returns the series of one indicator for ?year=, or the recent series without it.
func (h *IndicatorsHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	detail, err := h.source.FetchHistory(c.Request().Context(), models.IndicatorCode(req.Code), req.Year)
	if err != nil {
		return h.fail(c, "history", err)
	}
	detail.Series = detail.SortedSeries()
	return xhttp.SuccessResponse(c, detail)
}

// ByDate returns the value of one indicator on a day given as yyyy-mm-dd or dd-mm-yyyy.
func (h *IndicatorsHandler) ByDate(c echo.Context) error {
	req := &models.DateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	day, ok := xhttp.ParseDay(req.Date)
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("date %q must be yyyy-mm-dd or dd-mm-yyyy", req.Date).WithParam("value", req.Date))
	}
	detail, err := h.source.FetchByDate(c.Request().Context(), models.IndicatorCode(req.Code), day)
	if err != nil {
		return h.fail(c, "date", err)
	}
	return xhttp.SuccessResponse(c, detail)
}

// CompareResponse is the aligned table of a comparison.
type CompareResponse struct {
	Year    int                     `json:"year,omitempty"`
	Entries []models.SelectionEntry `json:"entries"`
	Rows    []models.AlignedRow     `json:"rows"`
}

// Compare aligns two or three indicators by day: /api/compare?codes=dolar,euro&year=2024.
func (h *IndicatorsHandler) Compare(c echo.Context) error {
	req := &models.CompareRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	codes := splitCodes(req.Codes)
	rows, err := h.comparator.Compare(c.Request().Context(), codes, req.Year)
	if err != nil {
		return h.fail(c, "compare", err)
	}
	// Names are best effort; Snapshot.Name falls back to the code.
	snap, err := h.source.FetchSnapshot(c.Request().Context())
	if err != nil {
		h.logger.Warn("compare names unavailable", xlogger.Error(err))
	}
	entries := make([]models.SelectionEntry, len(codes))
	for i, code := range codes {
		entries[i] = models.SelectionEntry{Code: code, Name: snap.Name(code), Color: models.ColorFor(code)}
	}
	return xhttp.SuccessResponse(c, CompareResponse{Year: req.Year, Entries: entries, Rows: rows})
}

func splitCodes(s string) []models.IndicatorCode {
	parts := xutil.SplitCSV(s)
	codes := make([]models.IndicatorCode, len(parts))
	for i, p := range parts {
		codes[i] = models.IndicatorCode(p)
	}
	return codes
}

func (h *IndicatorsHandler) fail(c echo.Context, op string, err error) error {
	appErr := handler.AppError(err)
	if appErr.Status >= 500 {
		h.metrics.RecordError(op)
		h.logger.Error("api request failed", xlogger.String("op", op), xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
