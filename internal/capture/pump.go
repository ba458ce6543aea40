package capture

import (
	"context"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/lookout/internal/config"
)

// Pump forwards frames from src to sup until the source closes its channel
// or ctx is cancelled. It stops the supplier on exit so viewers unblock.
func Pump(ctx context.Context, src Source, sup *Supplier, logger *slog.Logger) {
	defer sup.Stop()

	frames := src.Frames()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				logger.Warn("capture source closed", slog.Any("stats", src.Stats()))
				return
			}
			sup.Publish(frame)
		}
	}
}

// NewSource picks the capture implementation by name
func NewSource(name string, cfg Config, logger *slog.Logger) (Source, error) {
	switch name {
	case config.CaptureV4L2:
		return NewV4L2(cfg, logger)
	default:
		return NewSynthetic(cfg), nil
	}
}
