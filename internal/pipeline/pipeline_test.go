package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/backmassage/wastedetect/internal/annotate"
	"github.com/backmassage/wastedetect/internal/config"
	"github.com/backmassage/wastedetect/internal/detect"
	"github.com/backmassage/wastedetect/internal/logging"
	"github.com/backmassage/wastedetect/internal/metrics"
	"github.com/backmassage/wastedetect/internal/video"
)

// --- Source and extension tests ---

func TestResolveSource(t *testing.T) {
	dir := t.TempDir()
	file := touch(t, dir, "bin.jpg")

	cases := []struct {
		name string
		path string
		want SourceKind
	}{
		{"file", file, SourceFile},
		{"directory", dir, SourceDir},
		{"missing", filepath.Join(dir, "nope.jpg"), SourceInvalid},
		{"empty", "", SourceInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveSource(tc.path); got != tc.want {
				t.Errorf("ResolveSource(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		path string
		want MediaKind
	}{
		{"a.jpg", MediaImage},
		{"a.JPEG", MediaImage},
		{"a.png", MediaImage},
		{"a.Bmp", MediaImage},
		{"a.tiff", MediaImage},
		{"a.tif", MediaUnsupported},
		{"a.mp4", MediaVideo},
		{"a.AVI", MediaVideo},
		{"a.mov", MediaVideo},
		{"a.mkv", MediaVideo},
		{"a.webm", MediaUnsupported},
		{"notes.txt", MediaUnsupported},
		{"noext", MediaUnsupported},
		{"dir.png/file", MediaUnsupported},
	}
	for _, tc := range cases {
		if got := Classify(tc.path); got != tc.want {
			t.Errorf("Classify(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestListDir_RegularFilesOnly(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.jpg")
	touch(t, dir, "b.mp4")
	touch(t, dir, "c.txt")
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, sub, "deep.jpg")
	if err := os.Symlink(filepath.Join(dir, "a.jpg"), filepath.Join(dir, "link.jpg")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(sub, filepath.Join(dir, "linkdir")); err != nil {
		t.Fatal(err)
	}

	files, err := ListDir(dir)
	if err != nil {
		t.Fatalf("ListDir: %v", err)
	}
	got := basenames(files)
	sort.Strings(got)
	want := []string{"a.jpg", "b.mp4", "c.txt", "link.jpg"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestListDir_Missing(t *testing.T) {
	if _, err := ListDir(filepath.Join(t.TempDir(), "gone")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestOutputPaths(t *testing.T) {
	if got, want := ImageOutputPath("out", "in/x/bin.JPG"), filepath.Join("out", "results", "bin.JPG"); got != want {
		t.Errorf("ImageOutputPath = %q, want %q", got, want)
	}
	if got, want := VideoOutputPath("out", "in/clip.mov"), filepath.Join("out", "clip.mov"); got != want {
		t.Errorf("VideoOutputPath = %q, want %q", got, want)
	}
}

// --- Run tests ---

func TestRun_MixedDirectory(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writePNG(t, src, "a.png")
	writeJPEG(t, src, "b.JPG")
	touch(t, src, "clip.mp4")
	touch(t, src, "notes.txt")
	sub := filepath.Join(src, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, sub, "inner.png")

	det := &fakeDetector{dets: []detect.Detection{bottle()}}
	op := newFakeOpener(video.Props{FPS: 25, Width: 4, Height: 4})
	op.clips["clip.mp4"] = frames(7, 8, 9)

	cfg, log, buf := setup(t, src, out)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: det, Video: op, Metrics: metrics.New()})
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, buf)
	}

	if stats.Images != 2 || stats.Videos != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 images, 1 video, 1 skipped", stats)
	}
	if stats.Frames != 3 {
		t.Errorf("Frames = %d, want 3", stats.Frames)
	}
	if det.calls != 5 {
		t.Errorf("detector called %d times, want 5 (2 images + 3 frames)", det.calls)
	}
	if stats.Detections != 5 {
		t.Errorf("Detections = %d, want 5", stats.Detections)
	}
	for _, p := range []string{
		filepath.Join(out, "results", "a.png"),
		filepath.Join(out, "results", "b.JPG"),
		filepath.Join(out, "clip.mp4"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s", p)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "results", "inner.png")); err == nil {
		t.Error("nested directory was descended into")
	}
	if len(op.readers) != 1 || !op.readers[0].closed {
		t.Error("video reader not opened once and closed")
	}
	w := op.writers[filepath.Join(out, "clip.mp4")]
	if w == nil || !w.closed || w.fourcc != config.VideoFourCC {
		t.Errorf("writer = %+v, want closed mp4v writer", w)
	}
	if !strings.Contains(buf.String(), "Skipping unsupported file: "+filepath.Join(src, "notes.txt")) {
		t.Errorf("missing skip warning:\n%s", buf)
	}
}

func TestRun_SingleImage(t *testing.T) {
	src := t.TempDir()
	out := filepath.Join(t.TempDir(), "fresh")
	path := writePNG(t, src, "bin.png")

	det := &fakeDetector{dets: []detect.Detection{bottle()}}
	cfg, log, buf := setup(t, path, out)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: det, Video: newFakeOpener(video.Props{})})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Total != 1 || stats.Images != 1 {
		t.Errorf("stats = %+v", stats)
	}

	outPath := filepath.Join(out, "results", "bin.png")
	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Errorf("output size = %v, want 32x32", img.Bounds())
	}
	if stats.OutputBytes <= 0 {
		t.Errorf("OutputBytes = %d", stats.OutputBytes)
	}

	logs := buf.String()
	for _, want := range []string{
		"Detecting waste from: " + path,
		"Processing image: " + path,
		"Detection complete. Results saved in " + out,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("log missing %q:\n%s", want, logs)
		}
	}
}

func TestRun_VideoFramesInOrder(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "clip.mkv")

	op := newFakeOpener(video.Props{FPS: 24, Width: 4, Height: 4, FrameCount: 5})
	input := frames(10, 20, 30, 40, 50)
	op.clips["clip.mkv"] = input
	det := &fakeDetector{dets: []detect.Detection{bottle()}}

	cfg, log, buf := setup(t, path, out)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: det, Video: op})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	w := op.writers[filepath.Join(out, "clip.mkv")]
	if w == nil {
		t.Fatal("no writer created")
	}
	if len(w.frames) != 5 || stats.Frames != 5 {
		t.Fatalf("wrote %d frames (stats %d), want 5", len(w.frames), stats.Frames)
	}
	boxColor := annotate.ClassColor(bottle().ClassID)
	for i, want := range []uint8{10, 20, 30, 40, 50} {
		if got := grayAt(w.frames[i]); got != want {
			t.Errorf("frame %d = %d, want %d", i, got, want)
		}
		if got := w.frames[i].At(2, 2); got != boxColor {
			t.Errorf("frame %d box pixel = %v, want overlay %v", i, got, boxColor)
		}
		if got := grayAt(input[i]); got != want {
			t.Errorf("input frame %d was drawn on", i)
		}
	}
	if det.calls != 5 || stats.Detections != 5 {
		t.Errorf("detector calls = %d, detections = %d, want 5 each", det.calls, stats.Detections)
	}
	if w.props.FPS != 24 || w.props.Width != 4 || w.props.Height != 4 {
		t.Errorf("writer props = %+v", w.props)
	}
	if strings.Contains(buf.String(), "WARNING") {
		t.Errorf("unexpected warning:\n%s", buf)
	}
	if !strings.Contains(buf.String(), "Detection complete. Results saved in "+filepath.Join(out, "clip.mkv")) {
		t.Errorf("missing completion line:\n%s", buf)
	}
}

func TestRun_ZeroFrameVideo(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "empty.avi")

	op := newFakeOpener(video.Props{FPS: 30, Width: 4, Height: 4})
	op.clips["empty.avi"] = nil
	det := &fakeDetector{}

	cfg, log, _ := setup(t, path, out)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: det, Video: op})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Videos != 1 || stats.Frames != 0 {
		t.Errorf("stats = %+v, want 1 video, 0 frames", stats)
	}
	if _, err := os.Stat(filepath.Join(out, "empty.avi")); err != nil {
		t.Errorf("zero-frame output missing: %v", err)
	}
	if det.calls != 0 {
		t.Errorf("detector called %d times", det.calls)
	}
	if w := op.writers[filepath.Join(out, "empty.avi")]; !w.closed {
		t.Error("writer not closed")
	}
}

func TestRun_VideoFPSFallback(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "nofps.mov")

	op := newFakeOpener(video.Props{FPS: 0, Width: 4, Height: 4})
	op.clips["nofps.mov"] = frames(1)

	cfg, log, _ := setup(t, path, out)
	if _, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: op}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := op.writers[filepath.Join(out, "nofps.mov")].props.FPS; got != video.DefaultFPS {
		t.Errorf("writer fps = %v, want %v", got, video.DefaultFPS)
	}
}

func TestRun_FrameShortfallWarns(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "cut.mp4")

	op := newFakeOpener(video.Props{FPS: 30, Width: 4, Height: 4, FrameCount: 10})
	op.clips["cut.mp4"] = frames(1, 2, 3)

	cfg, log, buf := setup(t, path, out)
	if _, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: op}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(buf.String(), "[WARNING]   Decoded 3 of 10 frames") {
		t.Errorf("missing shortfall warning:\n%s", buf)
	}
}

func TestRun_InvalidSource(t *testing.T) {
	out := t.TempDir()
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	det := &fakeDetector{}

	cfg, log, buf := setup(t, missing, out)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: det, Video: newFakeOpener(video.Props{})})
	if !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("err = %v, want ErrInvalidSource", err)
	}
	if stats.Total != 0 || det.calls != 0 {
		t.Errorf("processed something: %+v, %d detector calls", stats, det.calls)
	}
	if !strings.Contains(buf.String(), "[ERROR] Invalid source provided. Please check the path.") {
		t.Errorf("missing diagnostic:\n%s", buf)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("output dir not empty: %v", entries)
	}
}

func TestRun_UnsupportedSingleFile(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "notes.txt")
	det := &fakeDetector{}

	cfg, log, buf := setup(t, path, out)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: det, Video: newFakeOpener(video.Props{})})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 1 || stats.Processed() != 0 || det.calls != 0 {
		t.Errorf("stats = %+v, calls = %d", stats, det.calls)
	}
	if !strings.Contains(buf.String(), "[WARNING] Skipping unsupported file: "+path) {
		t.Errorf("missing skip warning:\n%s", buf)
	}
	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("output dir not empty: %v", entries)
	}
}

func TestRun_DetectorErrorStopsRun(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "clip.mp4")

	errBoom := errors.New("inference failed")
	op := newFakeOpener(video.Props{FPS: 30, Width: 4, Height: 4})
	op.clips["clip.mp4"] = frames(1, 2)

	cfg, log, _ := setup(t, path, out)
	_, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{err: errBoom}, Video: op})
	if !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want wrapped %v", err, errBoom)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q does not name the file", err)
	}
	if !op.readers[0].closed {
		t.Error("reader left open")
	}
	if w := op.writers[filepath.Join(out, "clip.mp4")]; !w.closed {
		t.Error("writer left open")
	}
}

func TestRun_VideoOpenError(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := touch(t, src, "broken.mp4")

	cfg, log, _ := setup(t, path, out)
	_, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: newFakeOpener(video.Props{})})
	if !errors.Is(err, video.ErrOpen) {
		t.Errorf("err = %v, want video.ErrOpen", err)
	}
}

func TestRun_CorruptImage(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	path := filepath.Join(src, "bad.jpg")
	if err := os.WriteFile(path, []byte("not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, log, _ := setup(t, path, out)
	_, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: newFakeOpener(video.Props{})})
	if err == nil || !strings.Contains(err.Error(), "decode image") {
		t.Errorf("err = %v, want decode failure", err)
	}
}

func TestRun_CancelledBetweenFiles(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	writePNG(t, src, "a.png")
	writePNG(t, src, "b.png")
	det := &fakeDetector{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg, log, buf := setup(t, src, out)
	stats, err := Run(ctx, cfg, log, Env{Detector: det, Video: newFakeOpener(video.Props{})})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Images != 0 || det.calls != 0 {
		t.Errorf("processed after cancel: %+v", stats)
	}
	if !strings.Contains(buf.String(), "Interrupted") {
		t.Errorf("missing interrupt line:\n%s", buf)
	}
}

func TestRun_SingleImageOutputIsItsOwnDirectory(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "bin.png")

	cfg, log, buf := setup(t, path, dir)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: newFakeOpener(video.Props{})})
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, buf)
	}
	if stats.Images != 1 {
		t.Errorf("Images = %d, want 1", stats.Images)
	}
	if _, err := os.Stat(filepath.Join(dir, "results", "bin.png")); err != nil {
		t.Errorf("result not written under results/: %v", err)
	}
}

func TestRun_VideoNeverOverwritesItsSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, dir, "bin.png")

	op := newFakeOpener(video.Props{FPS: 30, Width: 4, Height: 4})
	op.clips["clip.mp4"] = frames(1, 2)

	cfg, log, buf := setup(t, dir, dir)
	stats, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: op})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Videos != 0 || stats.Images != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 1 image, 1 skipped video", stats)
	}
	if len(op.readers) != 0 || len(op.writers) != 0 {
		t.Error("video was opened even though its output is the source")
	}
	if b, _ := os.ReadFile(path); string(b) != "original" {
		t.Errorf("source modified: %q", b)
	}
	if !strings.Contains(buf.String(), "Output would overwrite the source") {
		t.Errorf("missing warning:\n%s", buf)
	}
}

func TestRun_EncoderCheckRunsOnceForVideos(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	touch(t, src, "a.mp4")
	touch(t, src, "b.mov")
	writePNG(t, src, "c.png")

	op := newFakeOpener(video.Props{FPS: 30, Width: 4, Height: 4})
	op.clips["a.mp4"] = frames(1)
	op.clips["b.mov"] = frames(2)
	calls := 0
	env := Env{Detector: &fakeDetector{}, Video: op, EncoderCheck: func() error { calls++; return nil }}

	cfg, log, _ := setup(t, src, out)
	if _, err := Run(context.Background(), cfg, log, env); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 1 {
		t.Errorf("encoder check ran %d times, want 1", calls)
	}
}

func TestRun_EncoderCheckNotNeeded(t *testing.T) {
	errNoEncoder := errors.New("no mp4v encoder")
	failing := func() error { return errNoEncoder }

	t.Run("images only", func(t *testing.T) {
		src := t.TempDir()
		writePNG(t, src, "a.png")
		cfg, log, _ := setup(t, src, t.TempDir())
		stats, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: newFakeOpener(video.Props{}), EncoderCheck: failing})
		if err != nil || stats.Images != 1 {
			t.Errorf("Run = %+v, %v; want 1 image, no error", stats, err)
		}
	})

	t.Run("invalid source", func(t *testing.T) {
		cfg, log, _ := setup(t, filepath.Join(t.TempDir(), "missing"), t.TempDir())
		_, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: newFakeOpener(video.Props{}), EncoderCheck: failing})
		if !errors.Is(err, ErrInvalidSource) {
			t.Errorf("err = %v, want ErrInvalidSource", err)
		}
	})

	t.Run("video fails", func(t *testing.T) {
		src := t.TempDir()
		touch(t, src, "a.mp4")
		op := newFakeOpener(video.Props{FPS: 30, Width: 4, Height: 4})
		op.clips["a.mp4"] = frames(1)
		cfg, log, _ := setup(t, src, t.TempDir())
		_, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: op, EncoderCheck: failing})
		if !errors.Is(err, errNoEncoder) {
			t.Errorf("err = %v, want %v", err, errNoEncoder)
		}
		if len(op.readers) != 0 {
			t.Error("video opened despite failing encoder check")
		}
	})
}

func TestRun_VideoWithoutReportedSize(t *testing.T) {
	t.Run("size from first frame", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		path := touch(t, src, "raw.avi")
		op := newFakeOpener(video.Props{FPS: 30})
		op.clips["raw.avi"] = frames(5, 6, 7)

		cfg, log, _ := setup(t, path, out)
		stats, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: op})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		w := op.writers[filepath.Join(out, "raw.avi")]
		if w.props.Width != 4 || w.props.Height != 4 {
			t.Errorf("writer props = %+v, want 4x4", w.props)
		}
		if len(w.frames) != 3 || stats.Frames != 3 || grayAt(w.frames[0]) != 5 {
			t.Errorf("wrote %d frames, first %d; want 3 starting at 5", len(w.frames), grayAt(w.frames[0]))
		}
	})

	t.Run("no size and no frames", func(t *testing.T) {
		src := t.TempDir()
		out := t.TempDir()
		path := touch(t, src, "void.mp4")
		op := newFakeOpener(video.Props{})
		op.clips["void.mp4"] = nil

		cfg, log, buf := setup(t, path, out)
		stats, err := Run(context.Background(), cfg, log, Env{Detector: &fakeDetector{}, Video: op})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if stats.Skipped != 1 || stats.Videos != 0 {
			t.Errorf("stats = %+v, want 1 skipped", stats)
		}
		if !op.readers[0].closed {
			t.Error("reader left open")
		}
		if len(op.writers) != 0 {
			t.Error("writer created without a frame size")
		}
		if !strings.Contains(buf.String(), "No frame size reported") {
			t.Errorf("missing warning:\n%s", buf)
		}
	})
}

// --- Fakes ---

type fakeDetector struct {
	dets  []detect.Detection
	err   error
	calls int
}

func (d *fakeDetector) Detect(image.Image) ([]detect.Detection, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.dets, nil
}

func (d *fakeDetector) Close() error { return nil }

// fakeOpener serves in-memory clips keyed by source basename and records
// every writer it creates. Create leaves a real (placeholder) file behind,
// the way an encoder writes its header before the first frame.
type fakeOpener struct {
	props   video.Props
	clips   map[string][]image.Image
	readers []*fakeReader
	writers map[string]*fakeWriter
}

func newFakeOpener(p video.Props) *fakeOpener {
	return &fakeOpener{
		props:   p,
		clips:   make(map[string][]image.Image),
		writers: make(map[string]*fakeWriter),
	}
}

func (o *fakeOpener) Open(path string) (video.Reader, error) {
	clip, ok := o.clips[filepath.Base(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", video.ErrOpen, path)
	}
	r := &fakeReader{frames: clip, props: o.props}
	o.readers = append(o.readers, r)
	return r, nil
}

func (o *fakeOpener) Create(path, fourcc string, p video.Props) (video.Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", video.ErrCreate, err)
	}
	w := &fakeWriter{f: f, fourcc: fourcc, props: p}
	o.writers[path] = w
	return w, nil
}

type fakeReader struct {
	frames []image.Image
	props  video.Props
	next   int
	closed bool
}

func (r *fakeReader) Props() video.Props { return r.props }

func (r *fakeReader) Read() (image.Image, bool) {
	if r.next >= len(r.frames) {
		return nil, false
	}
	r.next++
	return r.frames[r.next-1], true
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type fakeWriter struct {
	f      *os.File
	fourcc string
	props  video.Props
	frames []image.Image
	closed bool
}

func (w *fakeWriter) Write(frame image.Image) error {
	w.frames = append(w.frames, frame)
	_, err := w.f.Write([]byte{0})
	return err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return w.f.Close()
}

// --- Helpers ---

func setup(t *testing.T, source, output string) (*config.Config, *logging.Logger, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Source = source
	cfg.Model = "yolov8n.onnx"
	cfg.Output = output
	cfg.ColorMode = config.ColorNever

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	t.Cleanup(func() { log.Close() })
	var buf bytes.Buffer
	log.SetOutput(&buf)
	return &cfg, log, &buf
}

func bottle() detect.Detection {
	return detect.Detection{ClassID: 39, Label: "bottle", Confidence: 0.9, Box: image.Rect(2, 2, 3, 3)}
}

// frames builds 4x4 uniform gray frames, one per value.
func frames(values ...uint8) []image.Image {
	out := make([]image.Image, len(values))
	for i, v := range values {
		img := image.NewGray(image.Rect(0, 0, 4, 4))
		for j := range img.Pix {
			img.Pix[j] = v
		}
		out[i] = img
	}
	return out
}

func grayAt(img image.Image) uint8 {
	r, _, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	return uint8(r >> 8)
}

func sample() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, sample()); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, sample(), nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatalf("touch %s: %v", path, err)
	}
	return path
}

func basenames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}
