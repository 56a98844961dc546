package handler

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"Indicadores/internal/domain/models"
	"Indicadores/internal/service/mindicador"
	"Indicadores/internal/usecase"
	xhttp "Indicadores/pkg/http"

	"github.com/labstack/echo/v4"
)

const dashboardKey = "dashboard"

var registerOnce sync.Once

// RegisterValidators adds the "indicator" tag used by the request models. Safe to call repeatedly.
func RegisterValidators() {
	registerOnce.Do(func() {
		if err := xhttp.RegisterValidation("indicator", models.ValidCode); err != nil {
			panic(err)
		}
	})
}

// Sessions resolves the session cookie into a dashboard stored on the context. A missing or
// malformed cookie gets a fresh session id.
func Sessions(reg *usecase.SessionRegistry, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if ck, err := c.Cookie(usecase.SessionCookie); err == nil {
				id = ck.Value
			}
			d, resolved := reg.Get(c.Request().Context(), id)
			if resolved != id {
				c.SetCookie(&http.Cookie{
					Name:     usecase.SessionCookie,
					Value:    resolved,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(dashboardKey, d)
			return next(c)
		}
	}
}

// Dashboard returns the session dashboard set by Sessions.
func Dashboard(c echo.Context) *usecase.Dashboard {
	d, _ := c.Get(dashboardKey).(*usecase.Dashboard)
	return d
}

// AppError maps domain and upstream failures onto HTTP errors.
func AppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var netErr *mindicador.NetworkError
	switch {
	case errors.As(err, &netErr):
		return xhttp.UpstreamError("upstream request failed").WithError(err)
	case errors.Is(err, models.ErrUnknownIndicator),
		errors.Is(err, models.ErrInvalidYear),
		errors.Is(err, models.ErrComparisonSize),
		errors.Is(err, models.ErrComparisonUnavailable):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrViewClosed):
		return xhttp.NewAppError("ERR_CONFLICT", "", err.Error(), http.StatusConflict).WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
