// Package annotator runs detection on captured frames, draws the overlays
// and re-encodes them as JPEG for the MJPEG streams.
package annotator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/lookout/internal/capture"
	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
)

// Emitter receives one event per annotated frame; Emit must not block
type Emitter interface {
	Emit(event domain.DetectionEvent)
}

// Emitters fans an event out to several emitters
type Emitters []Emitter

func (es Emitters) Emit(event domain.DetectionEvent) {
	for _, e := range es {
		e.Emit(event)
	}
}

type Config struct {
	JPEGQuality    int
	FocalLength    float64
	KnownFaceWidth float64
}

func DefaultConfig() Config {
	return Config{
		JPEGQuality:    80,
		FocalLength:    DefaultFocalLength,
		KnownFaceWidth: DefaultKnownFaceWidth,
	}
}

type Annotator struct {
	detector provider.Detector
	settings *Settings
	emitter  Emitter
	logger   *slog.Logger
	cfg      Config
}

func New(detector provider.Detector, settings *Settings, emitter Emitter, logger *slog.Logger, cfg Config) *Annotator {
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = DefaultConfig().JPEGQuality
	}
	return &Annotator{
		detector: detector,
		settings: settings,
		emitter:  emitter,
		logger:   logger,
		cfg:      cfg,
	}
}

func (a *Annotator) Settings() *Settings {
	return a.settings
}

// Annotate detects on frame, draws the overlays for mode and returns the
// JPEG. A detector failure degrades to the un-annotated frame.
func (a *Annotator) Annotate(ctx context.Context, frame *capture.Frame, mode domain.DetectionMode) ([]byte, error) {
	if !mode.Valid() {
		return nil, domain.ErrBadRequest.WithError(fmt.Errorf("unknown detection mode %q", mode))
	}

	raw, err := a.encode(frame.Image)
	if err != nil {
		return nil, err
	}

	opts := provider.Options{
		Width:   frame.Width(),
		Height:  frame.Height(),
		Eyes:    mode == domain.ModeFace || mode == domain.ModeEye,
		Emotion: mode == domain.ModeEmotion,
	}
	snap := a.settings.Snapshot()

	event := domain.DetectionEvent{
		Mode:      mode,
		Seq:       frame.Seq,
		TraceID:   frame.TraceID,
		Timestamp: frame.Timestamp,
		Provider:  a.detector.Name(),
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	img := frame.Clone()

	if mode == domain.ModeBody {
		bodies, err := a.detector.DetectBodies(ctx, raw, opts)
		if err != nil {
			a.degrade(ctx, frame, mode, err)
			return raw, nil
		}
		for _, b := range bodies {
			if b.Confidence < snap.Sensitivity {
				continue
			}
			drawBox(img, b.BoundingBox, colorBody)
			event.Bodies++
			event.Boxes = append(event.Boxes, toDetectedBox("body", b.BoundingBox, b.Confidence, ""))
		}
	} else {
		faces, err := a.detector.DetectFaces(ctx, raw, opts)
		if err != nil {
			a.degrade(ctx, frame, mode, err)
			return raw, nil
		}
		for _, f := range faces {
			if f.Confidence < snap.Sensitivity {
				continue
			}
			a.drawFace(img, f, mode, snap, &event)
		}
	}

	out, err := a.encode(img)
	if err != nil {
		return nil, err
	}

	if a.emitter != nil {
		a.emitter.Emit(event)
	}
	return out, nil
}

func (a *Annotator) drawFace(img *image.RGBA, f provider.DetectedFace, mode domain.DetectionMode, snap SettingsSnapshot, event *domain.DetectionEvent) {
	label := ""

	if mode != domain.ModeEye {
		drawBox(img, f.BoundingBox, colorFace)
		event.Faces++

		switch {
		case mode == domain.ModeEmotion && f.Emotion != "":
			label = f.Emotion
			drawLabel(img, f.BoundingBox, label, colorEmotion)
		case mode == domain.ModeFace && snap.ShowDistance:
			if cm, ok := EstimateDistance(f.BoundingBox.Width, a.cfg.KnownFaceWidth, a.cfg.FocalLength); ok {
				label = DistanceLabel(cm)
				drawLabel(img, f.BoundingBox, label, colorFace)
			}
		}
		event.Boxes = append(event.Boxes, toDetectedBox("face", f.BoundingBox, f.Confidence, label))
	}

	for _, eye := range f.Eyes {
		drawBox(img, eye, colorEye)
		event.Eyes++
		event.Boxes = append(event.Boxes, toDetectedBox("eye", eye, 0, ""))
	}
}

func (a *Annotator) degrade(ctx context.Context, frame *capture.Frame, mode domain.DetectionMode, err error) {
	level := slog.LevelWarn
	if errors.Is(err, domain.ErrDetectionUnsupported) {
		level = slog.LevelDebug
	}
	a.logger.Log(ctx, level, "detection failed, streaming raw frame",
		slog.String("mode", string(mode)),
		slog.String("provider", a.detector.Name()),
		slog.Uint64("seq", frame.Seq),
		slog.String("trace_id", frame.TraceID),
		slog.Any("error", err),
	)
}

func (a *Annotator) encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: a.cfg.JPEGQuality}); err != nil {
		return nil, domain.ErrInternal.WithError(fmt.Errorf("encode jpeg: %w", err))
	}
	return buf.Bytes(), nil
}

func toDetectedBox(kind string, b provider.BoundingBox, confidence float64, label string) domain.DetectedBox {
	return domain.DetectedBox{
		Kind:       kind,
		X:          int(b.X),
		Y:          int(b.Y),
		Width:      int(b.Width),
		Height:     int(b.Height),
		Confidence: confidence,
		Label:      label,
	}
}
