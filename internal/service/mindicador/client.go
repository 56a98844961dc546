package mindicador

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Indicadores/internal/domain/models"
	drepo "Indicadores/internal/domain/repository"
	xhttp "Indicadores/pkg/http"
	xlogger "Indicadores/pkg/logger"
	xutil "Indicadores/pkg/util"
)

// DefaultBaseURL is the public mindicador.cl API root.
const DefaultBaseURL = "https://mindicador.cl/api"

// NetworkError is returned for every failed upstream call: transport failure,
// non-2xx status or an undecodable body.
type NetworkError struct {
	Op     string // snapshot, history, date
	URL    string
	Status int // 0 when no response was received
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("mindicador %s %s: status %d: %v", e.Op, e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("mindicador %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Client implements IndicatorSource against the mindicador.cl REST API.
type Client struct {
	baseURL string
	http    *xhttp.Client
	logger  *xlogger.Logger
	metrics drepo.Metrics
}

// New creates a client. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, httpClient *xhttp.Client, logger *xlogger.Logger, metrics drepo.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = xhttp.NewClient()
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger.With(xlogger.String("component", "mindicador")),
		metrics: metrics,
	}
}

var _ drepo.IndicatorSource = (*Client)(nil)

// FetchSnapshot returns the latest value of every known indicator.
func (c *Client) FetchSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot
	if err := c.get(ctx, "snapshot", c.baseURL, &snap); err != nil {
		return nil, err
	}
	if snap == nil {
		snap = models.Snapshot{}
	}
	return snap, nil
}

// FetchHistory returns the series of code for year, or the full series when year is 0.
func (c *Client) FetchHistory(ctx context.Context, code models.IndicatorCode, year int) (models.IndicatorDetail, error) {
	url := c.baseURL + "/" + string(code)
	if year != 0 {
		url += "/" + strconv.Itoa(year)
	}
	return c.detail(ctx, "history", url, code)
}

// FetchByDate returns the value of code on a single day.
func (c *Client) FetchByDate(ctx context.Context, code models.IndicatorCode, day time.Time) (models.IndicatorDetail, error) {
	url := c.baseURL + "/" + string(code) + "/" + day.Format(xutil.UpstreamDayLayout)
	return c.detail(ctx, "date", url, code)
}

func (c *Client) detail(ctx context.Context, op, url string, code models.IndicatorCode) (models.IndicatorDetail, error) {
	var d models.IndicatorDetail
	if err := c.get(ctx, op, url, &d); err != nil {
		return models.IndicatorDetail{}, err
	}
	if d.Code == "" {
		d.Code = code
	}
	if d.Series == nil {
		d.Series = []models.SeriesPoint{}
	}
	return d, nil
}

func (c *Client) get(ctx context.Context, op, url string, dest interface{}) error {
	start := time.Now()
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{Method: xhttp.MethodGet, URL: url}, dest)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.RecordUpstream(op, "error", elapsed.Seconds())
		c.metrics.RecordError("upstream_" + op)

		ne := &NetworkError{Op: op, URL: url, Err: err}
		var se *xhttp.StatusError
		if errors.As(err, &se) {
			ne.Status = se.Code
		}
		c.logger.Error("upstream request failed",
			xlogger.String("op", op),
			xlogger.String("url", url),
			xlogger.Int("status", ne.Status),
			xlogger.Error(err),
		)
		return ne
	}

	c.metrics.RecordUpstream(op, "ok", elapsed.Seconds())
	c.logger.Debug("upstream request", xlogger.String("op", op), xlogger.String("url", url), xlogger.Duration("duration_ms", elapsed))
	return nil
}
