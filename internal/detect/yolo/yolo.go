// Package yolo runs YOLOv8 detection models through the OpenCV DNN module.
package yolo

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"

	"github.com/backmassage/wastedetect/internal/detect"
)

// Sentinel errors returned by Load.
var (
	ErrUnsupportedModel = errors.New("unsupported model format")
	ErrEmptyNet         = errors.New("model file produced an empty network")
)

// Detector is a loaded network plus its post-processing settings. It
// implements [detect.Detector]. Not safe for concurrent use.
type Detector struct {
	net        gocv.Net
	opts       detect.Options
	labels     detect.Labels
	LabelsFrom string // Sidecar file the class names came from, if any.
}

// Load reads model weights in any format OpenCV DNN understands (ONNX for
// YOLOv8 exports). PyTorch checkpoints are rejected with an export hint.
func Load(path string, opts detect.Options) (*Detector, error) {
	if strings.EqualFold(filepath.Ext(path), ".pt") {
		return nil, fmt.Errorf("%w: %s is a PyTorch checkpoint; export it first with: yolo export model=%s format=onnx",
			ErrUnsupportedModel, path, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}

	labels, from, err := detect.FindLabels(path)
	if err != nil {
		return nil, fmt.Errorf("load class names: %w", err)
	}

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("%w: %s", ErrEmptyNet, path)
	}
	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set DNN backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set DNN target: %w", err)
	}

	return &Detector{
		net:        net,
		opts:       opts,
		labels:     labels,
		LabelsFrom: from,
	}, nil
}

// Detect letterboxes img, runs one forward pass, and returns the boxes that
// survive confidence filtering and class-aware NMS, highest score first.
func (d *Detector) Detect(img image.Image) ([]detect.Detection, error) {
	size := d.opts.InputSize
	lb := detect.NewLetterbox(img, size)

	mat, err := gocv.ImageToMatRGB(lb.Image)
	if err != nil {
		return nil, fmt.Errorf("convert input: %w", err)
	}
	defer mat.Close()

	// ImageToMatRGB yields BGR; swapRB turns it back into the RGB the
	// network was trained on.
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read network output: %w", err)
	}
	cands, classes, err := detect.Decode(data, out.Size(), d.opts.Confidence)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	rects := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		rects[i] = c.NMSRect()
		scores[i] = c.Score
	}
	keep := gocv.NMSBoxes(rects, scores, d.opts.Confidence, d.opts.IoU)

	labels := d.labels.ForClassCount(classes)
	dets := make([]detect.Detection, 0, len(keep))
	for _, i := range keep {
		c := cands[i]
		box := lb.Unmap(c.X1, c.Y1, c.X2, c.Y2)
		if box.Empty() {
			continue
		}
		dets = append(dets, detect.Detection{
			ClassID:    c.ClassID,
			Label:      labels.Name(c.ClassID),
			Confidence: c.Score,
			Box:        box,
		})
	}
	sort.SliceStable(dets, func(i, j int) bool { return dets[i].Confidence > dets[j].Confidence })
	if limit := d.opts.MaxDetections; limit > 0 && len(dets) > limit {
		dets = dets[:limit]
	}
	return dets, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	return d.net.Close()
}
