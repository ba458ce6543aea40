package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// LocalRequestID is where requestid.New stores the id
const LocalRequestID = "requestid"

// fingerprints are logged shortened; the full value is a session key
const fingerprintLogLen = 12

// probes polled by orchestrators
var quietPaths = map[string]bool{
	"/health": true,
	"/ready":  true,
}

// Logger writes one access log line per request, with the gate outcome.
// Streams only report the time to the first byte.
func Logger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// render errors here so the logged status is the one sent
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()

		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		case quietPaths[c.Path()]:
			level = slog.LevelDebug
		}

		attrs := []slog.Attr{
			slog.String("request_id", requestID(c)),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("ip", c.IP()),
			slog.String("user_agent", c.Get(fiber.HeaderUserAgent)),
			slog.String("auth", AuthStateFrom(c).String()),
		}
		if method := authMethodFrom(c); method != domain.AuthMethodNone {
			attrs = append(attrs, slog.String("auth_method", string(method)))
		}
		if fp := shortFingerprint(c); fp != "" {
			attrs = append(attrs, slog.String("fingerprint", fp))
		}
		if status == fiber.StatusFound && c.Path() != LoginPath && string(c.Response().Header.Peek(fiber.HeaderLocation)) == LoginPath {
			attrs = append(attrs, slog.Bool("gated", true))
		}

		logger.LogAttrs(c.Context(), level, "http request", attrs...)

		return nil
	}
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalRequestID).(string)
	return id
}

func authMethodFrom(c *fiber.Ctx) domain.AuthMethod {
	method, _ := c.Locals(LocalAuthMethod).(domain.AuthMethod)
	return method
}

func shortFingerprint(c *fiber.Ctx) string {
	fp, _ := c.Locals(LocalFingerprint).(string)
	if len(fp) > fingerprintLogLen {
		return fp[:fingerprintLogLen]
	}
	return fp
}
