package capture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/lookout/internal/domain"
)

// Synthetic generates a moving test pattern: a gradient background with a
// bright disc bouncing across it.
type Synthetic struct {
	cfg Config

	frames  chan *Frame
	seq     atomic.Uint64
	dropped atomic.Uint64

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	running   bool
}

var _ Source = (*Synthetic)(nil)

func NewSynthetic(cfg Config) *Synthetic {
	return &Synthetic{cfg: cfg}
}

func (s *Synthetic) Start(ctx context.Context) error {
	if s.cfg.Width <= 0 || s.cfg.Height <= 0 || s.cfg.FPS <= 0 {
		return domain.ErrCaptureUnavailable.WithError(errors.New("invalid capture geometry"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("synthetic source already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.frames = make(chan *Frame, 1)
	s.done = make(chan struct{})
	s.startedAt = time.Now()
	s.running = true

	go s.loop(ctx)
	return nil
}

func (s *Synthetic) Frames() <-chan *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

func (s *Synthetic) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (s *Synthetic) Stats() SourceStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SourceStats{
		Source:         "synthetic",
		FramesCaptured: s.seq.Load(),
		FramesDropped:  s.dropped.Load(),
		StartedAt:      s.startedAt,
		Running:        s.running,
	}
}

func (s *Synthetic) loop(ctx context.Context) {
	defer close(s.done)
	defer close(s.frames)

	ticker := time.NewTicker(time.Second / time.Duration(s.cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			seq := s.seq.Add(1)
			img := renderPattern(s.cfg.Width, s.cfg.Height, seq)
			MirrorRGBA(img)

			frame := &Frame{
				Seq:       seq,
				Timestamp: now,
				TraceID:   uuid.New().String(),
				Image:     img,
			}

			// non-blocking: newest frame wins downstream anyway
			select {
			case s.frames <- frame:
			default:
				s.dropped.Add(1)
			}
		}
	}
}

// renderPattern draws frame number seq of the test pattern
func renderPattern(w, h int, seq uint64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	shift := int(seq % 256)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off] = uint8((x*255/w + shift) % 256)
			img.Pix[off+1] = uint8(y * 255 / h)
			img.Pix[off+2] = 96
			img.Pix[off+3] = 255
		}
	}

	// disc bounces horizontally across the middle third
	r := h / 6
	span := w - 2*r
	pos := int(seq*8) % (2 * span)
	if pos > span {
		pos = 2*span - pos
	}
	cx, cy := r+pos, h/2
	fill := color.RGBA{R: 235, G: 200, B: 170, A: 255}
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r && image.Pt(x, y).In(img.Rect) {
				img.SetRGBA(x, y, fill)
			}
		}
	}

	return img
}
