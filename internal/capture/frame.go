// Package capture produces mirrored RGBA frames from a camera or a synthetic
// generator and fans them out to stream viewers.
package capture

import (
	"context"
	"image"
	"time"
)

// Frame is one captured picture. Image must not be modified after Publish;
// consumers that draw on it work on a copy.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	TraceID   string
	Image     *image.RGBA
}

// Width returns the frame width in pixels
func (f *Frame) Width() int { return f.Image.Bounds().Dx() }

// Height returns the frame height in pixels
func (f *Frame) Height() int { return f.Image.Bounds().Dy() }

// Clone returns a deep copy safe to draw on
func (f *Frame) Clone() *image.RGBA {
	dst := image.NewRGBA(f.Image.Bounds())
	copy(dst.Pix, f.Image.Pix)
	return dst
}

// Source is a capture device. Frames is valid after a successful Start and is
// closed once the source stops.
type Source interface {
	Start(ctx context.Context) error
	Frames() <-chan *Frame
	Stop() error
	Stats() SourceStats
}

// SourceStats is a snapshot of capture counters
type SourceStats struct {
	Source         string    `json:"source"`
	FramesCaptured uint64    `json:"frames_captured"`
	FramesDropped  uint64    `json:"frames_dropped"`
	StartedAt      time.Time `json:"started_at"`
	Running        bool      `json:"running"`
}

// Config describes the capture geometry
type Config struct {
	Device string
	Width  int
	Height int
	FPS    int
}

// MirrorRGBA flips img horizontally in place
func MirrorRGBA(img *image.RGBA) {
	b := img.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			lo, ro := l*4, r*4
			for k := 0; k < 4; k++ {
				row[lo+k], row[ro+k] = row[ro+k], row[lo+k]
			}
		}
	}
}
