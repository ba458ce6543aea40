package capture

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMirrorRGBA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	img.SetRGBA(0, 0, red)
	img.SetRGBA(2, 1, blue)

	MirrorRGBA(img)

	assert.Equal(t, red, img.RGBAAt(2, 0))
	assert.Equal(t, blue, img.RGBAAt(0, 1))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
}

func TestFrame_Clone(t *testing.T) {
	f := testFrame(1)
	f.Image.SetRGBA(1, 1, color.RGBA{G: 200, A: 255})

	c := f.Clone()
	c.SetRGBA(1, 1, color.RGBA{R: 1, A: 255})

	assert.Equal(t, uint8(200), f.Image.RGBAAt(1, 1).G)
	assert.Equal(t, 4, f.Width())
	assert.Equal(t, 2, f.Height())
}
