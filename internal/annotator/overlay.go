package annotator

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/saturnino-fabrica-de-software/lookout/internal/provider"
)

var (
	colorFace    = color.RGBA{G: 255, A: 255}
	colorEye     = color.RGBA{B: 255, A: 255}
	colorBody    = color.RGBA{R: 255, G: 200, A: 255}
	colorEmotion = color.RGBA{R: 255, G: 255, A: 255}
)

const strokeWidth = 2

// drawBox outlines box with a stroke of strokeWidth, clipped to img
func drawBox(img *image.RGBA, box provider.BoundingBox, c color.RGBA) {
	r := toRect(box).Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(c)
	sw := strokeWidth
	if r.Dx() < 2*sw || r.Dy() < 2*sw {
		draw.Draw(img, r, src, image.Point{}, draw.Src)
		return
	}
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+sw), // top
		image.Rect(r.Min.X, r.Max.Y-sw, r.Max.X, r.Max.Y), // bottom
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+sw, r.Max.Y), // left
		image.Rect(r.Max.X-sw, r.Min.Y, r.Max.X, r.Max.Y), // right
	}
	for _, e := range edges {
		draw.Draw(img, e, src, image.Point{}, draw.Src)
	}
}

// drawLabel writes text with its baseline 10px above the box top, or just
// inside the box when there is no room above
func drawLabel(img *image.RGBA, box provider.BoundingBox, text string, c color.RGBA) {
	face := basicfont.Face7x13
	x := int(box.X)
	y := int(box.Y) - 10
	if y < face.Ascent {
		y = int(box.Y) + face.Ascent + strokeWidth
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func toRect(b provider.BoundingBox) image.Rectangle {
	return image.Rect(int(b.X), int(b.Y), int(b.X+b.Width), int(b.Y+b.Height))
}
