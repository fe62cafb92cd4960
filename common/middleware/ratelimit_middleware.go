package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/medview/imagestore/common/ratelimit"
)

// UploadRateLimitMiddleware checks the per-client upload rate limit.
// Fails open on limiter errors so a Redis outage never blocks uploads.
func UploadRateLimitMiddleware(limiter *ratelimit.Limiter, limit int64, windowSec int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			result, err := limiter.CheckUploadLimit(c.Request().Context(), c.RealIP(), limit, windowSec)
			if err != nil {
				// On error, allow request (fail open for availability)
				return next(c)
			}

			if !result.Allowed {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":   "upload_rate_limit_exceeded",
					"message": "Too many uploads. Please wait before trying again.",
					"details": map[string]interface{}{
						"limit":               result.Limit,
						"current_count":       result.CurrentCount,
						"retry_after_seconds": result.RetryAfterSeconds,
					},
				})
			}

			return next(c)
		}
	}
}
