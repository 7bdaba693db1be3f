// Package opencv implements video.Opener on top of OpenCV's VideoCapture and
// VideoWriter.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/backmassage/wastedetect/internal/video"
)

// Opener opens files through OpenCV's default backends (FFmpeg on most builds).
type Opener struct{}

var _ video.Opener = Opener{}

// Open starts frame-sequential decoding of path.
func (Opener) Open(path string) (video.Reader, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", video.ErrOpen, path, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: %s", video.ErrOpen, path)
	}
	return &reader{
		vc:  vc,
		mat: gocv.NewMat(),
		props: video.Props{
			FPS:        vc.Get(gocv.VideoCaptureFPS),
			Width:      int(vc.Get(gocv.VideoCaptureFrameWidth)),
			Height:     int(vc.Get(gocv.VideoCaptureFrameHeight)),
			FrameCount: int(vc.Get(gocv.VideoCaptureFrameCount)),
		},
	}, nil
}

// Create opens a color writer for path with the given FourCC and geometry.
func (Opener) Create(path, fourcc string, p video.Props) (video.Writer, error) {
	vw, err := gocv.VideoWriterFile(path, fourcc, p.FPS, p.Width, p.Height, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", video.ErrCreate, path, err)
	}
	if !vw.IsOpened() {
		vw.Close()
		return nil, fmt.Errorf("%w: %s (%s %dx%d @ %.2f fps)", video.ErrCreate, path, fourcc, p.Width, p.Height, p.FPS)
	}
	return &writer{vw: vw}, nil
}

type reader struct {
	vc    *gocv.VideoCapture
	mat   gocv.Mat
	props video.Props
}

func (r *reader) Props() video.Props { return r.props }

// Read decodes the next frame. A frame that decodes but cannot be converted
// ends the stream like a failed read.
func (r *reader) Read() (image.Image, bool) {
	if ok := r.vc.Read(&r.mat); !ok || r.mat.Empty() {
		return nil, false
	}
	img, err := r.mat.ToImage()
	if err != nil {
		return nil, false
	}
	return img, true
}

func (r *reader) Close() error {
	matErr := r.mat.Close()
	if err := r.vc.Close(); err != nil {
		return err
	}
	return matErr
}

type writer struct {
	vw *gocv.VideoWriter
}

func (w *writer) Write(frame image.Image) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()
	return w.vw.Write(mat)
}

// Close finalizes the container. A writer that received no frames still
// leaves a valid, empty file.
func (w *writer) Close() error {
	return w.vw.Close()
}
