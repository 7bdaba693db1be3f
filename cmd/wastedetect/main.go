// Command wastedetect runs a pretrained YOLOv8 detector over an image, a
// video, or a directory of either, and writes annotated copies to an output
// directory.
//
// It parses flags, validates configuration, and either runs
// system diagnostics (--check) or the detection pipeline.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/wastedetect/internal/check"
	"github.com/backmassage/wastedetect/internal/config"
	"github.com/backmassage/wastedetect/internal/detect"
	"github.com/backmassage/wastedetect/internal/detect/yolo"
	"github.com/backmassage/wastedetect/internal/display"
	"github.com/backmassage/wastedetect/internal/logging"
	"github.com/backmassage/wastedetect/internal/metrics"
	"github.com/backmassage/wastedetect/internal/pipeline"
	"github.com/backmassage/wastedetect/internal/video/opencv"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Bootstrap: no logger yet, errors go straight to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, version); err != nil {
		fmt.Fprintf(os.Stderr, "wastedetect: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "wastedetect: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wastedetect: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner(os.Stdout)
	log.Debug(cfg.Verbose, "wastedetect v%s (%s)", version, commit)

	if cfg.CheckOnly {
		if !check.RunCheck(&cfg, log) {
			return 1
		}
		return 0
	}

	log.Info("Loading YOLOv8 model...")
	det, err := yolo.Load(cfg.Model, detect.DefaultOptions())
	if err != nil {
		log.Error("Cannot load model: %v", err)
		return 1
	}
	defer det.Close()
	if det.LabelsFrom != "" {
		log.Debug(cfg.Verbose, "Class names from %s", det.LabelsFrom)
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.Output)
		return 1
	}

	// Cancel on SIGINT/SIGTERM; the pipeline stops between files.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current file...")
		cancel()
	}()

	var rec *metrics.Recorder
	if cfg.MetricsFile != "" {
		rec = metrics.New()
	}

	// The encoder is probed before the first video only, so image-only
	// runs and invalid sources never depend on it.
	_, err = pipeline.Run(ctx, &cfg, log, pipeline.Env{
		Detector:     det,
		Video:        opencv.Opener{},
		Metrics:      rec,
		EncoderCheck: func() error { return check.CheckDeps(&cfg) },
	})

	if rec != nil {
		if werr := rec.WriteTextfile(cfg.MetricsFile); werr != nil {
			log.Warn("Cannot write metrics: %v", werr)
		} else {
			log.Debug(cfg.Verbose, "Metrics written to %s", cfg.MetricsFile)
		}
	}

	if code := exitCode(err); code != 0 {
		log.Error("%v", err)
		return code
	}
	return 0
}

// exitCode maps the pipeline outcome to the process status. An invalid
// source has already been reported by the pipeline and is not a failure.
func exitCode(err error) int {
	if err == nil || errors.Is(err, pipeline.ErrInvalidSource) {
		return 0
	}
	return 1
}
