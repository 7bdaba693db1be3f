// Package annotate draws detection overlays (box outline plus a filled label
// tab) onto a copy of an image, in the YOLOv8 plotting style.
package annotate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/backmassage/wastedetect/internal/detect"
)

// palette is the ultralytics class color cycle.
var palette = []color.NRGBA{
	hex(0xFF3838), hex(0xFF9D97), hex(0xFF701F), hex(0xFFB21D), hex(0xCFD231),
	hex(0x48F90A), hex(0x92CC17), hex(0x3DDB86), hex(0x1A9334), hex(0x00D4BB),
	hex(0x2C99A8), hex(0x00C2FF), hex(0x344593), hex(0x6473FF), hex(0x0018EC),
	hex(0x8438FF), hex(0x520085), hex(0xCB38FF), hex(0xFF95C8), hex(0xFF37C7),
}

func hex(v uint32) color.NRGBA {
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

// ClassColor returns the overlay color for a class id.
func ClassColor(classID int) color.NRGBA {
	if classID < 0 {
		classID = -classID
	}
	return palette[classID%len(palette)]
}

// LineWidth is the box outline thickness for a w x h image.
func LineWidth(w, h int) int {
	return max(int(math.Round(float64(w+h)/2*0.003)), 2)
}

// Draw returns a copy of img, rebased to the origin, with every detection
// outlined and labelled "<label> <confidence>". img is not modified.
func Draw(img image.Image, dets []detect.Detection) *image.NRGBA {
	dst := imaging.Clone(img)
	origin := img.Bounds().Min
	lw := LineWidth(dst.Bounds().Dx(), dst.Bounds().Dy())
	face := basicfont.Face7x13

	for _, d := range dets {
		box := d.Box.Sub(origin).Intersect(dst.Bounds())
		if box.Empty() {
			continue
		}
		c := ClassColor(d.ClassID)
		outline(dst, box, lw, c)
		label(dst, box, fmt.Sprintf("%s %.2f", d.Label, d.Confidence), c, face)
	}
	return dst
}

// outline strokes r with a border of width lw drawn inward.
func outline(dst draw.Image, r image.Rectangle, lw int, c color.Color) {
	src := image.NewUniform(c)
	lw = min(lw, r.Dx(), r.Dy())
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+lw),
		image.Rect(r.Min.X, r.Max.Y-lw, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+lw, r.Max.Y),
		image.Rect(r.Max.X-lw, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// label draws text on a tab filled with c, above the box when there is room
// and just inside its top edge otherwise.
func label(dst draw.Image, box image.Rectangle, text string, c color.NRGBA, face font.Face) {
	const pad = 2
	m := face.Metrics()
	textW := font.MeasureString(face, text).Ceil()
	textH := m.Height.Ceil()

	tab := image.Rect(box.Min.X, box.Min.Y-textH-2*pad, box.Min.X+textW+2*pad, box.Min.Y)
	if tab.Min.Y < dst.Bounds().Min.Y {
		tab = tab.Add(image.Pt(0, textH+2*pad))
	}
	tab = tab.Intersect(dst.Bounds())
	if tab.Empty() {
		return
	}
	draw.Draw(dst, tab, image.NewUniform(c), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor(c)),
		Face: face,
		Dot:  fixed.P(tab.Min.X+pad, tab.Min.Y+pad+m.Ascent.Ceil()),
	}
	d.DrawString(text)
}

// textColor picks black or white for legibility on bg.
func textColor(bg color.NRGBA) color.Color {
	lum := 0.299*float64(bg.R) + 0.587*float64(bg.G) + 0.114*float64(bg.B)
	if lum > 160 {
		return color.Black
	}
	return color.White
}
