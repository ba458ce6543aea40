package handler

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/annotator"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

type SettingsHandler struct {
	settings *annotator.Settings
	logger   *slog.Logger
}

func NewSettingsHandler(settings *annotator.Settings, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, logger: logger}
}

type StatusResponse struct {
	Status string `json:"status"`
}

type SensitivityRequest struct {
	Value *float64 `query:"value" validate:"required,gte=0,lte=1"`
}

type ToggleDistanceRequest struct {
	Show string `query:"show" validate:"omitempty,oneof=true false 1 0"`
}

// UpdateSensitivity handles GET /update_sensitivity?value=<float>
func (h *SettingsHandler) UpdateSensitivity(c *fiber.Ctx) error {
	var req SensitivityRequest
	if err := c.QueryParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	if err := h.settings.SetSensitivity(*req.Value); err != nil {
		return err
	}

	h.logger.Info("sensitivity updated", slog.Float64("value", *req.Value))
	return c.JSON(StatusResponse{Status: "success"})
}

// ToggleDistance handles GET /toggle_distance?show=true|false. A missing
// value turns the label on.
func (h *SettingsHandler) ToggleDistance(c *fiber.Ctx) error {
	var req ToggleDistanceRequest
	if err := c.QueryParser(&req); err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}
	if err := validateStruct(req); err != nil {
		return err
	}

	show := true
	if req.Show != "" {
		show, _ = strconv.ParseBool(req.Show)
	}
	h.settings.SetShowDistance(show)

	h.logger.Info("distance label toggled", slog.Bool("show", show))
	return c.JSON(StatusResponse{Status: "success"})
}

// Get handles GET /settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.settings.Snapshot())
}
