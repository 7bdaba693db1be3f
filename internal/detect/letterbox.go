package detect

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// padColor is the gray YOLOv8 fills letterbox borders with.
var padColor = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// Letterbox is a source image scaled to fit a square network input with its
// aspect ratio preserved and the remainder padded, plus the geometry needed
// to map boxes back.
type Letterbox struct {
	Image *image.NRGBA
	Scale float64
	PadX  int
	PadY  int
	src   image.Rectangle
}

// NewLetterbox fits img into a size x size canvas, centered.
func NewLetterbox(img image.Image, size int) Letterbox {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h))
	nw := max(int(math.Round(float64(w)*scale)), 1)
	nh := max(int(math.Round(float64(h)*scale)), 1)

	canvas := imaging.New(size, size, padColor)
	padX, padY := (size-nw)/2, (size-nh)/2
	resized := imaging.Resize(img, nw, nh, imaging.Linear)
	canvas = imaging.Paste(canvas, resized, image.Pt(padX, padY))

	return Letterbox{
		Image: canvas,
		Scale: scale,
		PadX:  padX,
		PadY:  padY,
		src:   b,
	}
}

// Unmap converts a corner-form box in letterbox coordinates back to source
// image coordinates, clipped to the source bounds.
func (lb Letterbox) Unmap(x1, y1, x2, y2 float32) image.Rectangle {
	conv := func(v float32, pad int) int {
		return int(math.Round((float64(v) - float64(pad)) / lb.Scale))
	}
	r := image.Rect(
		conv(x1, lb.PadX), conv(y1, lb.PadY),
		conv(x2, lb.PadX), conv(y2, lb.PadY),
	).Add(lb.src.Min)
	return r.Intersect(lb.src)
}
