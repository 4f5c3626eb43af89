package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/luminar-software/presenca/internal/domain"
)

// ErrorHandler maps errors to the JSON error envelope. Handlers return
// domain.AppError values; anything else is treated as an internal fault
// and hidden behind a generic message.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return respond(c, fiberErr.Code, "HTTP_ERROR", fiberErr.Message)
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("request_id", requestIDFrom(c)),
					slog.String("code", appErr.Code),
					slog.String("message", appErr.Message),
					slog.Any("error", appErr.Err),
				)
			}
			return respond(c, appErr.StatusCode, appErr.Code, appErr.Message)
		}

		logger.Error("unhandled error",
			slog.String("request_id", requestIDFrom(c)),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)

		return respond(c, fiber.StatusInternalServerError,
			"INTERNAL_ERROR", "An unexpected error occurred")
	}
}

func respond(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}
