// Package detect defines the detector contract used by the pipeline and the
// model-independent pieces of YOLOv8 inference: letterbox preprocessing,
// output-tensor decoding, and class-name lookup.
//
// The OpenCV-backed implementation lives in detect/yolo so that everything
// here builds and tests without cgo.
package detect

import "image"

// Detection is one object found in an image, in source-image pixel
// coordinates.
type Detection struct {
	ClassID    int
	Label      string
	Confidence float32
	Box        image.Rectangle
}

// Detector runs a pretrained model over a single image. Calls are
// independent of each other.
type Detector interface {
	Detect(img image.Image) ([]Detection, error)
	Close() error
}

// Options tunes post-processing. The values in [DefaultOptions] match the
// ultralytics predict defaults and are not exposed on the command line.
type Options struct {
	InputSize     int     // Square network input, in pixels.
	Confidence    float32 // Minimum class score kept before NMS.
	IoU           float32 // NMS overlap threshold.
	MaxDetections int     // Cap on boxes returned per image.
}

// DefaultOptions returns the YOLOv8 predict defaults.
func DefaultOptions() Options {
	return Options{
		InputSize:     640,
		Confidence:    0.25,
		IoU:           0.7,
		MaxDetections: 300,
	}
}
