package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/access"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

const (
	LocalAuthState   = "auth_state"
	LocalFingerprint = "fingerprint"
	LocalAuthMethod  = "auth_method"

	// MarkerCookie carries the signed authentication marker
	MarkerCookie = "lookout_marker"

	LoginPath = "/login"
)

// Authenticator is implemented by access.Controller
type Authenticator interface {
	Authenticate(ctx context.Context, id access.Identity, marker string) (access.Decision, error)
}

type GateDependencies struct {
	Access       Authenticator
	Markers      *access.MarkerService // optional; refreshes the cookie after a session match
	Logger       *slog.Logger
	CookieSecure bool
}

// Gate lets authenticated requests through and redirects everything else to
// the login page. Any error while deciding counts as unauthenticated.
func Gate(deps GateDependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision, err := deps.Access.Authenticate(c.UserContext(), IdentityFrom(c), c.Cookies(MarkerCookie))
		if err != nil {
			deps.Logger.Error("access check failed",
				slog.String("path", c.Path()),
				slog.String("ip", c.IP()),
				slog.Any("error", err),
			)
			return c.Redirect(LoginPath, fiber.StatusFound)
		}

		if decision.State != domain.Authenticated {
			return c.Redirect(LoginPath, fiber.StatusFound)
		}

		c.Locals(LocalAuthState, decision.State)
		c.Locals(LocalFingerprint, decision.Fingerprint)
		c.Locals(LocalAuthMethod, decision.Method)

		if decision.Method == domain.AuthMethodSession && deps.Markers != nil {
			token, err := deps.Markers.Issue(decision.Fingerprint, domain.AuthMethodSession)
			if err != nil {
				deps.Logger.Warn("failed to issue marker", slog.Any("error", err))
			} else {
				SetMarkerCookie(c, token, deps.Markers.TTL(), deps.CookieSecure)
			}
		}

		return c.Next()
	}
}

// IdentityFrom extracts the fingerprint signals of a request
func IdentityFrom(c *fiber.Ctx) access.Identity {
	return access.Identity{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Address:   c.IP(),
	}
}

// AuthStateFrom returns the state stored by Gate, Unauthenticated when absent
func AuthStateFrom(c *fiber.Ctx) domain.AuthState {
	state, ok := c.Locals(LocalAuthState).(domain.AuthState)
	if !ok {
		return domain.Unauthenticated
	}
	return state
}

func SetMarkerCookie(c *fiber.Ctx, token string, ttl time.Duration, secure bool) {
	c.Cookie(&fiber.Cookie{
		Name:     MarkerCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
