package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Lotes-api/pkg/logger"
)

// RequestLogger registra cada petición con su estado y duración.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duracion", time.Since(start)).
			Str("operador", GetOperatorID(c)).
			Msg("petición HTTP")
		return err
	}
}
