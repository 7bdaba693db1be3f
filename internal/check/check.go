// Package check provides system diagnostics (--check mode) and the encoder
// probe (CheckDeps) run before the first video of a batch.
package check

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"github.com/backmassage/wastedetect/internal/config"
	"github.com/backmassage/wastedetect/internal/detect"
	"github.com/backmassage/wastedetect/internal/detect/yolo"
	"github.com/backmassage/wastedetect/internal/display"
	"github.com/backmassage/wastedetect/internal/video"
	"github.com/backmassage/wastedetect/internal/video/opencv"
)

// ErrEncoderUnavailable is returned by CheckDeps when OpenCV cannot write
// an mp4v stream, so no video could be produced.
var ErrEncoderUnavailable = errors.New("OpenCV cannot encode " + config.VideoFourCC + " video (built without FFmpeg?)")

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the --check flow: prints the gocv and OpenCV versions, tries
// a one-frame video write, and, when a model path was given, loads the
// model and runs it once on a blank image. Returns false if any step failed.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")
	log.Success("gocv: %s", gocv.Version())
	log.Success("OpenCV: %s", gocv.OpenCVVersion())

	ok := checkEncoder(cfg, log)
	if cfg.Model == "" {
		log.Info("No --model given, skipping model load test")
		return ok
	}
	return checkModel(cfg, log) && ok
}

func checkEncoder(cfg *config.Config, log Logger) bool {
	log.Info("Testing %s video writer...", config.VideoFourCC)
	size, err := testWrite()
	if err != nil {
		log.Error("%s writer failed: %v", config.VideoFourCC, err)
		return false
	}
	log.Success("%s writer works", config.VideoFourCC)
	log.Debug(cfg.Verbose, "  test clip: %s", display.FormatBytes(size))
	return true
}

func checkModel(cfg *config.Config, log Logger) bool {
	log.Info("Loading model %s...", cfg.Model)
	det, err := yolo.Load(cfg.Model, detect.DefaultOptions())
	if err != nil {
		log.Error("Model load failed: %v", err)
		return false
	}
	defer det.Close()

	if det.LabelsFrom != "" {
		log.Info("  Class names: %s", det.LabelsFrom)
	} else {
		log.Debug(cfg.Verbose, "  No class-name file next to the model; using built-in names")
	}

	blank := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	dets, err := det.Detect(blank)
	if err != nil {
		log.Error("Test inference failed: %v", err)
		return false
	}
	log.Success("Model works (%d detections on a blank frame)", len(dets))
	return true
}

// CheckDeps verifies that OpenCV can encode the fixed output codec. Model
// loading is validated separately by the caller, which needs the loaded
// model anyway.
func CheckDeps(cfg *config.Config) error {
	if _, err := testWrite(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncoderUnavailable, err)
	}
	return nil
}

// testWrite encodes a single black 64x64 frame into a temp directory and
// returns the resulting file size.
func testWrite() (int64, error) {
	dir, err := os.MkdirTemp("", "wastedetect-check-")
	if err != nil {
		return 0, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "probe.mp4")
	w, err := opencv.Opener{}.Create(path, config.VideoFourCC, video.Props{FPS: video.DefaultFPS, Width: 64, Height: 64})
	if err != nil {
		return 0, err
	}
	frame := image.NewGray(image.Rect(0, 0, 64, 64))
	if err := w.Write(frame); err != nil {
		w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}

	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if fi.Size() == 0 {
		return 0, errors.New("encoder produced an empty file")
	}
	return fi.Size(), nil
}
