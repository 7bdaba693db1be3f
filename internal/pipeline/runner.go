package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/backmassage/wastedetect/internal/annotate"
	"github.com/backmassage/wastedetect/internal/config"
	"github.com/backmassage/wastedetect/internal/detect"
	"github.com/backmassage/wastedetect/internal/display"
	"github.com/backmassage/wastedetect/internal/logging"
	"github.com/backmassage/wastedetect/internal/metrics"
	"github.com/backmassage/wastedetect/internal/video"
)

// ErrInvalidSource is returned by Run when the source path is neither a
// regular file nor a directory. Nothing is processed in that case.
var ErrInvalidSource = errors.New("invalid source")

// Env carries the long-lived collaborators of a run. Detector and Video are
// required; a nil Metrics records nothing.
type Env struct {
	Detector detect.Detector
	Video    video.Opener
	Metrics  *metrics.Recorder

	// EncoderCheck, when set, runs once before the first video is opened and
	// its error ends the run. Runs without videos never call it.
	EncoderCheck func() error
}

// Run is the top-level batch entry point. It resolves cfg.Source, routes
// every file to its handler, and returns aggregate stats. The first
// detector or codec failure ends the run and is returned wrapped with the
// file it happened on.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, env Env) (RunStats, error) {
	var stats RunStats
	start := time.Now()
	defer func() { env.Metrics.Finish(time.Now()) }()

	log.Info("Detecting waste from: %s", cfg.Source)

	var files []string
	switch ResolveSource(cfg.Source) {
	case SourceFile:
		files = []string{cfg.Source}
	case SourceDir:
		listed, err := ListDir(cfg.Source)
		if err != nil {
			return stats, fmt.Errorf("list %s: %w", cfg.Source, err)
		}
		files = listed
		log.Debug(cfg.Verbose, "Found %d files", len(files))
	default:
		log.Error("Invalid source provided. Please check the path.")
		return stats, ErrInvalidSource
	}

	if env.EncoderCheck != nil {
		env.EncoderCheck = sync.OnceValue(env.EncoderCheck)
	}

	stats.Total = len(files)
	for i, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		stats.Current = i + 1

		if err := processFile(cfg, log, env, path, &stats); err != nil {
			return stats, err
		}
	}

	logSummary(log, &stats, time.Since(start))
	return stats, nil
}

// processFile routes one file by extension.
func processFile(cfg *config.Config, log *logging.Logger, env Env, path string, stats *RunStats) error {
	log.Debug(cfg.Verbose, "[%d/%d] %s", stats.Current, stats.Total, filepath.Base(path))

	switch kind := Classify(path); kind {
	case MediaImage:
		return processImage(cfg, log, env, path, stats)
	case MediaVideo:
		return processVideo(cfg, log, env, path, stats)
	default:
		log.Warn("Skipping unsupported file: %s", path)
		stats.Skipped++
		env.Metrics.FileSkipped(kind.String())
		return nil
	}
}

// processImage: decode → detect → draw → save under <output>/results/.
func processImage(cfg *config.Config, log *logging.Logger, env Env, path string, stats *RunStats) error {
	log.Info("Processing image: %s", path)
	start := time.Now()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image %s: %w", path, err)
	}

	dets, err := detectTimed(env, img)
	if err != nil {
		return fmt.Errorf("detect %s: %w", path, err)
	}

	outPath := ImageOutputPath(cfg.Output, path)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create results directory: %w", err)
	}
	if err := imaging.Save(annotate.Draw(img, dets), outPath); err != nil {
		return fmt.Errorf("save %s: %w", outPath, err)
	}

	stats.Images++
	stats.Detections += len(dets)
	stats.OutputBytes += fileSize(outPath)
	env.Metrics.FileProcessed(MediaImage.String())

	log.Debug(cfg.Verbose, "  %d objects in %s", len(dets), display.FormatDuration(time.Since(start)))
	log.Success("Detection complete. Results saved in %s", cfg.Output)
	log.Blank()
	return nil
}

// processVideo annotates every decodable frame of path into
// <output>/<basename>. The reader and writer are closed on every path out;
// a failure to finalize the writer is reported when nothing else failed.
func processVideo(cfg *config.Config, log *logging.Logger, env Env, path string, stats *RunStats) (err error) {
	log.Info("Processing video: %s", path)
	start := time.Now()
	defer func() { stats.VideoTime += time.Since(start) }()

	outPath := VideoOutputPath(cfg.Output, path)
	if sameFile(path, outPath) {
		log.Warn("  Output would overwrite the source, skipping: %s", path)
		stats.Skipped++
		env.Metrics.FileSkipped(MediaVideo.String())
		return nil
	}

	if env.EncoderCheck != nil {
		if err := env.EncoderCheck(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	src, err := env.Video.Open(path)
	if err != nil {
		return fmt.Errorf("open video %s: %w", path, err)
	}
	defer src.Close()

	r, ok := video.WithGeometry(src)
	if !ok {
		log.Warn("  No frame size reported and no frame decodable, skipping: %s", path)
		stats.Skipped++
		env.Metrics.FileSkipped(MediaVideo.String())
		return nil
	}

	reported := r.Props()
	props := reported.Normalized()
	if props.FPS != reported.FPS {
		log.Debug(cfg.Verbose, "  No usable frame rate reported, writing at %.0f fps", props.FPS)
	}
	log.Debug(cfg.Verbose, "  %dx%d @ %.2f fps, ~%d frames", props.Width, props.Height, props.FPS, props.FrameCount)

	w, err := env.Video.Create(outPath, config.VideoFourCC, props)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	closeWriter := sync.OnceValue(w.Close)
	defer func() {
		if cerr := closeWriter(); cerr != nil && err == nil {
			err = fmt.Errorf("finalize %s: %w", outPath, cerr)
		}
	}()

	frames, err := video.Annotate(r, w, func(frame image.Image) (image.Image, error) {
		dets, err := detectTimed(env, frame)
		if err != nil {
			return nil, err
		}
		stats.Detections += len(dets)
		return annotate.Draw(frame, dets), nil
	})
	stats.Frames += frames
	env.Metrics.Frames(frames)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := closeWriter(); err != nil {
		return fmt.Errorf("finalize %s: %w", outPath, err)
	}

	if props.FrameCount > 0 && frames < props.FrameCount {
		log.Warn("  Decoded %d of %d frames reported by the container; the rest were unreadable", frames, props.FrameCount)
	}

	stats.Videos++
	stats.OutputBytes += fileSize(outPath)
	env.Metrics.FileProcessed(MediaVideo.String())

	log.Debug(cfg.Verbose, "  %d frames in %s (%s)",
		frames, display.FormatDuration(time.Since(start)), display.FormatFPS(frames, time.Since(start)))
	log.Success("Detection complete. Results saved in %s", outPath)
	log.Blank()
	return nil
}

// detectTimed runs the detector and records latency and per-class counts.
func detectTimed(env Env, img image.Image) ([]detect.Detection, error) {
	start := time.Now()
	dets, err := env.Detector.Detect(img)
	if err != nil {
		return nil, err
	}
	env.Metrics.Inference(time.Since(start), dets)
	return dets, nil
}

// sameFile reports whether a and b both exist and are the same file.
func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func logSummary(log *logging.Logger, stats *RunStats, elapsed time.Duration) {
	log.Info("==============================")
	log.Info("Done: %d images, %d videos, %d skipped", stats.Images, stats.Videos, stats.Skipped)
	log.Info("Summary report:")
	log.Info("  Total files processed: %d", stats.Processed())
	if stats.Frames > 0 {
		log.Info("  Video frames annotated: %d (%s)", stats.Frames, display.FormatFPS(stats.Frames, stats.VideoTime))
	}
	log.Info("  Objects detected: %d", stats.Detections)
	log.Info("  Output written: %s", display.FormatBytes(stats.OutputBytes))
	log.Success("  Finished in %s", display.FormatDuration(elapsed))
}
