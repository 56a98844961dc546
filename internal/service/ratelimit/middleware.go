package ratelimit

import (
	xhttp "Indicadores/pkg/http"

	"github.com/labstack/echo/v4"
)

// Middleware rejects requests with 429 once the client address runs out of tokens.
// A nil limiter lets everything through.
func Middleware(l *Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if l == nil || l.Allow(c.RealIP()) {
				return next(c)
			}
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests"))
		}
	}
}
