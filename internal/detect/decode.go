package detect

import (
	"fmt"
	"image"
	"math"
)

// maxCoord offsets boxes per class before NMS so that boxes of different
// classes never overlap (class-aware suppression).
const maxCoord = 7680

// Candidate is one anchor that passed the confidence threshold, in letterbox
// coordinates.
type Candidate struct {
	ClassID        int
	Score          float32
	X1, Y1, X2, Y2 float32
}

// NMSRect returns the candidate's box shifted by its class for class-aware
// non-maximum suppression.
func (c Candidate) NMSRect() image.Rectangle {
	off := float32(c.ClassID * maxCoord)
	return image.Rect(
		int(math.Round(float64(c.X1+off))), int(math.Round(float64(c.Y1+off))),
		int(math.Round(float64(c.X2+off))), int(math.Round(float64(c.Y2+off))),
	)
}

// Decode reads a YOLOv8 detection head output. dims is the tensor shape,
// either [1, 4+nc, anchors] (the ONNX export default) or the transposed
// [1, anchors, 4+nc]; the smaller trailing dimension is taken as the
// attribute axis. Each anchor holds cx, cy, w, h followed by one score per
// class. It returns candidates whose best class score is at least conf,
// and the number of classes the model predicts.
func Decode(data []float32, dims []int, conf float32) ([]Candidate, int, error) {
	if len(dims) != 3 || dims[0] != 1 {
		return nil, 0, fmt.Errorf("unexpected output shape %v (want [1 C N])", dims)
	}
	attrs, anchors := dims[1], dims[2]
	channelMajor := true
	if attrs > anchors {
		attrs, anchors = anchors, attrs
		channelMajor = false
	}
	if attrs <= 4 {
		return nil, 0, fmt.Errorf("output shape %v has no class scores", dims)
	}
	if len(data) < attrs*anchors {
		return nil, 0, fmt.Errorf("output has %d values, shape %v needs %d", len(data), dims, attrs*anchors)
	}
	classes := attrs - 4

	at := func(anchor, attr int) float32 {
		if channelMajor {
			return data[attr*anchors+anchor]
		}
		return data[anchor*attrs+attr]
	}

	var out []Candidate
	for i := 0; i < anchors; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < classes; c++ {
			if s := at(i, 4+c); s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < conf {
			continue
		}
		cx, cy, w, h := at(i, 0), at(i, 1), at(i, 2), at(i, 3)
		out = append(out, Candidate{
			ClassID: best,
			Score:   bestScore,
			X1:      cx - w/2,
			Y1:      cy - h/2,
			X2:      cx + w/2,
			Y2:      cy + h/2,
		})
	}
	return out, classes, nil
}
