package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/lookout/internal/annotator"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/web"
)

// StreamPaths maps each detection mode to its MJPEG route
var StreamPaths = map[domain.DetectionMode]string{
	domain.ModeFace:    "/video_feed",
	domain.ModeEye:     "/eye_video_feed",
	domain.ModeEmotion: "/emotion_video_feed",
	domain.ModeBody:    "/body_video_feed",
}

// PagePaths maps each detection mode to its page route
var PagePaths = map[domain.DetectionMode]string{
	domain.ModeFace:    "/face-detection",
	domain.ModeEye:     "/eye-detection",
	domain.ModeEmotion: "/emotion-detection",
	domain.ModeBody:    "/body-detection",
}

type page struct {
	Title string
	Nav   bool
}

type detectionPage struct {
	Title           string
	Nav             bool
	Heading         string
	Description     string
	Stream          string
	Mode            domain.DetectionMode
	DistanceControl bool
	Settings        annotator.SettingsSnapshot
}

var detectionCopy = map[domain.DetectionMode]struct{ heading, description string }{
	domain.ModeFace:    {"Face detection", "Faces in green, eyes in blue and the estimated distance to the camera."},
	domain.ModeEye:     {"Eye detection", "Eye regions of every face in frame."},
	domain.ModeEmotion: {"Emotion detection", "Each face labelled with its dominant expression."},
	domain.ModeBody:    {"Body detection", "People in frame."},
}

type PageHandler struct {
	views    *web.Views
	settings *annotator.Settings
}

func NewPageHandler(views *web.Views, settings *annotator.Settings) *PageHandler {
	return &PageHandler{views: views, settings: settings}
}

func (h *PageHandler) Index(c *fiber.Ctx) error {
	return h.views.Render(c, fiber.StatusOK, web.PageIndex, page{Title: "Home", Nav: true})
}

func (h *PageHandler) About(c *fiber.Ctx) error {
	return h.views.Render(c, fiber.StatusOK, web.PageAbout, page{Title: "About", Nav: true})
}

// Detection renders the page embedding the stream for mode
func (h *PageHandler) Detection(mode domain.DetectionMode) fiber.Handler {
	text := detectionCopy[mode]
	return func(c *fiber.Ctx) error {
		return h.views.Render(c, fiber.StatusOK, web.PageDetection, detectionPage{
			Title:           text.heading,
			Nav:             true,
			Heading:         text.heading,
			Description:     text.description,
			Stream:          StreamPaths[mode],
			Mode:            mode,
			DistanceControl: mode == domain.ModeFace,
			Settings:        h.settings.Snapshot(),
		})
	}
}
