package handler

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/saturnino-fabrica-de-software/lookout/internal/capture"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

const streamBoundary = "frame"

// FrameSource is implemented by capture.Supplier
type FrameSource interface {
	Subscribe(viewerID string) (read func() *capture.Frame, unsubscribe func())
}

// FrameAnnotator is implemented by annotator.Annotator
type FrameAnnotator interface {
	Annotate(ctx context.Context, frame *capture.Frame, mode domain.DetectionMode) ([]byte, error)
}

type StreamHandler struct {
	frames    FrameSource
	annotator FrameAnnotator
	maxFPS    float64
	logger    *slog.Logger
}

// NewStreamHandler creates the MJPEG handler. maxFPS <= 0 disables pacing.
func NewStreamHandler(frames FrameSource, annotator FrameAnnotator, maxFPS float64, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		frames:    frames,
		annotator: annotator,
		maxFPS:    maxFPS,
		logger:    logger,
	}
}

// Stream serves annotated frames for mode as multipart/x-mixed-replace until
// the viewer disconnects or capture stops
func (h *StreamHandler) Stream(mode domain.DetectionMode) fiber.Handler {
	return func(c *fiber.Ctx) error {
		viewerID := uuid.NewString()
		logger := h.logger.With(
			slog.String("viewer_id", viewerID),
			slog.String("mode", string(mode)),
			slog.String("ip", c.IP()),
		)

		c.Set(fiber.HeaderContentType, "multipart/x-mixed-replace; boundary="+streamBoundary)
		c.Set(fiber.HeaderCacheControl, "no-cache, no-store, must-revalidate")
		c.Set("Pragma", "no-cache")

		// the writer runs after the handler returns, c must not be used inside it
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			h.serve(w, viewerID, mode, logger)
		})
		return nil
	}
}

func (h *StreamHandler) serve(w *bufio.Writer, viewerID string, mode domain.DetectionMode, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	read, unsubscribe := h.frames.Subscribe(viewerID)
	defer unsubscribe()

	var limiter *rate.Limiter
	if h.maxFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(h.maxFPS), 1)
	}

	logger.Info("viewer connected")

	var sent uint64
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
		}

		frame := read()
		if frame == nil {
			logger.Info("stream ended", slog.Uint64("frames", sent))
			return
		}

		jpeg, err := h.annotator.Annotate(ctx, frame, mode)
		if err != nil {
			logger.Warn("frame skipped", slog.Uint64("seq", frame.Seq), slog.Any("error", err))
			continue
		}

		if err := writePart(w, jpeg); err != nil {
			logger.Info("viewer disconnected", slog.Uint64("frames", sent))
			return
		}
		sent++
	}
}

func writePart(w *bufio.Writer, jpeg []byte) error {
	if _, err := fmt.Fprintf(w, "--%s\r\nContent-Type: image/jpeg\r\n\r\n", streamBoundary); err != nil {
		return err
	}
	if _, err := w.Write(jpeg); err != nil {
		return err
	}
	if _, err := w.WriteString("\r\n"); err != nil {
		return err
	}
	return w.Flush()
}
