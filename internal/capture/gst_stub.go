//go:build !gstreamer

package capture

import (
	"errors"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// NewV4L2 needs the gstreamer build tag and the GStreamer dev libraries
func NewV4L2(cfg Config, logger *slog.Logger) (Source, error) {
	return nil, domain.ErrCaptureUnavailable.WithError(errors.New("built without gstreamer support"))
}
