package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/tripnetwork/identity-service/internal/api/metrics"
	"github.com/tripnetwork/identity-service/internal/core/domain"
	"github.com/tripnetwork/identity-service/internal/core/ports"
)

// LoginThrottle limits login attempts per client IP. Limiter failures let the
// request through.
func LoginThrottle(limiter ports.AttemptLimiter, limit int, window time.Duration, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), ip, limit, window)
			if err != nil {
				log.Warn().Err(err).Str("ip", ip).Msg("login limiter unavailable, allowing attempt")
				return next(c)
			}
			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				metrics.LoginsTotal.WithLabelValues("throttled").Inc()
				return echo.NewHTTPError(http.StatusTooManyRequests, domain.ErrTooManyAttempts.Error()).
					SetInternal(domain.ErrTooManyAttempts)
			}
			return next(c)
		}
	}
}
