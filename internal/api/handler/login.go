package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/access"
	"github.com/saturnino-fabrica-de-software/lookout/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/web"
)

// AccessService is implemented by access.Controller
type AccessService interface {
	Authenticate(ctx context.Context, id access.Identity, marker string) (access.Decision, error)
	RedeemCode(ctx context.Context, code string, id access.Identity) (*access.Grant, error)
}

type LoginHandler struct {
	access       AccessService
	markers      *access.MarkerService
	views        *web.Views
	logger       *slog.Logger
	cookieSecure bool
}

func NewLoginHandler(svc AccessService, markers *access.MarkerService, views *web.Views, logger *slog.Logger, cookieSecure bool) *LoginHandler {
	return &LoginHandler{
		access:       svc,
		markers:      markers,
		views:        views,
		logger:       logger,
		cookieSecure: cookieSecure,
	}
}

type LoginRequest struct {
	ReferenceCode string `json:"reference_code" form:"reference_code" validate:"required,reference_code"`
}

type LoginResponse struct {
	Status   string `json:"status"`
	Redirect string `json:"redirect"`
}

type loginPage struct {
	Title string
	Nav   bool
	Error string
}

// Show handles GET /login
func (h *LoginHandler) Show(c *fiber.Ctx) error {
	decision, err := h.access.Authenticate(c.UserContext(), middleware.IdentityFrom(c), c.Cookies(middleware.MarkerCookie))
	if err != nil {
		h.logger.Warn("access check failed on login page", slog.Any("error", err))
	} else if decision.State == domain.Authenticated {
		return c.Redirect("/", fiber.StatusFound)
	}

	return h.views.Render(c, fiber.StatusOK, web.PageLogin, loginPage{Title: "Login"})
}

// Submit handles POST /login. A browser that is already authenticated is
// sent home without redeeming, so resubmitting never consumes another use.
func (h *LoginHandler) Submit(c *fiber.Ctx) error {
	decision, err := h.access.Authenticate(c.UserContext(), middleware.IdentityFrom(c), c.Cookies(middleware.MarkerCookie))
	if err != nil {
		h.logger.Warn("access check failed on login submit", slog.Any("error", err))
	} else if decision.State == domain.Authenticated {
		return h.success(c)
	}

	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return h.deny(c, domain.ErrBadRequest.WithError(err))
	}
	req.ReferenceCode = strings.TrimSpace(req.ReferenceCode)

	// malformed codes can never exist in the table
	if err := validateStruct(req); err != nil {
		return h.deny(c, domain.ErrInvalidCode)
	}

	grant, err := h.access.RedeemCode(c.UserContext(), req.ReferenceCode, middleware.IdentityFrom(c))
	if err != nil {
		return h.deny(c, err)
	}

	if h.markers != nil {
		token, err := h.markers.Issue(grant.Fingerprint, domain.AuthMethodCode)
		if err != nil {
			// the stored session still authenticates the next request
			h.logger.Warn("failed to issue marker", slog.Any("error", err))
		} else {
			middleware.SetMarkerCookie(c, token, h.markers.TTL(), h.cookieSecure)
		}
	}

	return h.success(c)
}

func (h *LoginHandler) success(c *fiber.Ctx) error {
	if wantsJSON(c) {
		return c.JSON(LoginResponse{Status: "success", Redirect: "/"})
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *LoginHandler) deny(c *fiber.Ctx, err error) error {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.ErrInternal.WithError(err)
	}

	if appErr.StatusCode >= 500 {
		h.logger.Error("login failed",
			slog.String("code", appErr.Code),
			slog.Any("error", appErr.Err),
		)
	}

	if wantsJSON(c) {
		return appErr
	}
	return h.views.Render(c, appErr.StatusCode, web.PageLogin, loginPage{
		Title: "Login",
		Error: appErr.Message,
	})
}

func wantsJSON(c *fiber.Ctx) bool {
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
