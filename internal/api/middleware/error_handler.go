package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// ErrorHandler renders every returned error as
// {"error": {"code", "message", "request_id"}}. Only 5xx are logged here;
// access denials are already audited by the access controller.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return writeError(c, fiberErr.Code, "HTTP_ERROR", fiberErr.Message)
		}

		appErr := domain.ErrInternal.WithError(err)
		errors.As(err, &appErr)

		if appErr.StatusCode >= 500 {
			logger.Error("request failed",
				slog.String("request_id", requestID(c)),
				slog.String("code", appErr.Code),
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", appErr.Err),
			)
		}

		return writeError(c, appErr.StatusCode, appErr.Code, appErr.Message)
	}
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	body := fiber.Map{
		"code":    code,
		"message": message,
	}
	if id := requestID(c); id != "" {
		body["request_id"] = id
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}
