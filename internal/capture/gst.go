//go:build gstreamer

package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// videoflip "method" enum value for horizontal-flip
const flipHorizontal = 4

// V4L2 captures a webcam through GStreamer:
//
//	v4l2src → videoconvert → videoflip → videoscale → videorate → capsfilter(RGBA) → appsink
type V4L2 struct {
	cfg    Config
	logger *slog.Logger

	frames  chan *Frame
	seq     atomic.Uint64
	dropped atomic.Uint64

	mu        sync.Mutex
	pipeline  *gst.Pipeline
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	running   bool
}

var _ Source = (*V4L2)(nil)

func NewV4L2(cfg Config, logger *slog.Logger) (Source, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		return nil, domain.ErrCaptureUnavailable.WithError(errors.New("invalid capture geometry"))
	}
	return &V4L2{cfg: cfg, logger: logger}, nil
}

func (v *V4L2) Start(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.running {
		return errors.New("v4l2 source already started")
	}

	gst.Init(nil)

	pipeline, appsink, err := v.buildPipeline()
	if err != nil {
		return domain.ErrCaptureUnavailable.WithError(err)
	}

	v.frames = make(chan *Frame, 1)
	appsink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: v.onNewSample,
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		return domain.ErrCaptureUnavailable.WithError(fmt.Errorf("start pipeline: %w", err))
	}

	ctx, v.cancel = context.WithCancel(ctx)
	v.pipeline = pipeline
	v.done = make(chan struct{})
	v.startedAt = time.Now()
	v.running = true

	go v.monitor(ctx)

	v.logger.Info("v4l2 capture started",
		slog.String("device", v.cfg.Device),
		slog.Int("width", v.cfg.Width),
		slog.Int("height", v.cfg.Height),
		slog.Int("fps", v.cfg.FPS),
	)
	return nil
}

func (v *V4L2) buildPipeline() (*gst.Pipeline, *app.Sink, error) {
	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", v.cfg.Device)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}

	flip, err := gst.NewElement("videoflip")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoflip: %w", err)
	}
	flip.SetProperty("method", flipHorizontal) // selfie view

	scaler, err := gst.NewElement("videoscale")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videoscale: %w", err)
	}

	videorate, err := gst.NewElement("videorate")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create videorate: %w", err)
	}
	videorate.SetProperty("drop-only", true)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(buildCaps(v.cfg)))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 1)
	appsink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, flip, scaler, videorate, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(src, converter, flip, scaler, videorate, capsfilter, appsink.Element); err != nil {
		return nil, nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	return pipeline, appsink, nil
}

func buildCaps(cfg Config) string {
	return fmt.Sprintf("video/x-raw,format=RGBA,width=%d,height=%d,framerate=%d/1",
		cfg.Width, cfg.Height, cfg.FPS)
}

// onNewSample copies the RGBA buffer out of GStreamer; a bad sample is
// skipped rather than ending the stream
func (v *V4L2) onNewSample(sink *app.Sink) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		v.logger.Warn("v4l2: failed to pull sample, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	want := v.cfg.Width * v.cfg.Height * 4
	if len(data) < want {
		buffer.Unmap()
		v.logger.Warn("v4l2: short buffer", slog.Int("size", len(data)), slog.Int("want", want))
		return gst.FlowOK
	}

	img := image.NewRGBA(image.Rect(0, 0, v.cfg.Width, v.cfg.Height))
	copy(img.Pix, data[:want])
	buffer.Unmap()

	frame := &Frame{
		Seq:       v.seq.Add(1),
		Timestamp: time.Now(),
		TraceID:   uuid.New().String(),
		Image:     img,
	}

	select {
	case v.frames <- frame:
	default:
		v.dropped.Add(1)
	}

	return gst.FlowOK
}

// monitor watches the bus until ctx is done or the pipeline fails, then
// tears the pipeline down and closes Frames
func (v *V4L2) monitor(ctx context.Context) {
	defer close(v.done)
	defer close(v.frames)
	defer func() {
		_ = v.pipeline.SetState(gst.StateNull)
	}()

	bus := v.pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			v.logger.Warn("v4l2: end of stream", slog.Uint64("frames", v.seq.Load()))
			return
		case gst.MessageError:
			gerr := msg.ParseError()
			v.logger.Error("v4l2: pipeline error",
				slog.String("error", gerr.Error()),
				slog.String("debug", gerr.DebugString()),
				slog.String("device", v.cfg.Device),
			)
			return
		}
	}
}

func (v *V4L2) Frames() <-chan *Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.frames
}

func (v *V4L2) Stop() error {
	v.mu.Lock()
	if !v.running {
		v.mu.Unlock()
		return nil
	}
	v.running = false
	cancel, done := v.cancel, v.done
	v.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (v *V4L2) Stats() SourceStats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return SourceStats{
		Source:         "v4l2:" + v.cfg.Device,
		FramesCaptured: v.seq.Load(),
		FramesDropped:  v.dropped.Load(),
		StartedAt:      v.startedAt,
		Running:        v.running,
	}
}
