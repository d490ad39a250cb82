package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs every request once its handler returns.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"took", time.Since(start),
		}
		if err != nil {
			// the status is written later by the error handler
			logger.Warn("request failed", append(attrs, "error", err)...)
			return err
		}
		logger.Info("request", append(attrs, "status", c.Response().StatusCode())...)
		return nil
	}
}
