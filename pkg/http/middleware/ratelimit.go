package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether key may proceed now.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects requests over the per-client budget with 429. Clients are keyed
// by their real IP. onLimited may be nil.
func RateLimit(lim Allower, onLimited func(route string)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if lim.Allow(c.RealIP()) {
				return next(c)
			}
			if onLimited != nil {
				onLimited(routeOf(c))
			}
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
				"data":    "rate limit exceeded",
			})
		}
	}
}
