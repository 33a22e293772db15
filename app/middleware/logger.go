package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs every request with its duration. Errors are logged here
// and still handed to the app's ErrorHandler.
func RequestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			"method", c.Method(),
			"path", c.Path(),
			"duration", time.Since(start),
		}
		if err != nil {
			logger.Debug("request failed", append(attrs, "error", err)...)
		} else {
			logger.Debug("request", append(attrs, "status", c.Response().StatusCode())...)
		}
		return err
	}
}
