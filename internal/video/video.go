// Package video defines frame-sequential reading and writing and the
// read → transform → write loop used to annotate a clip. The OpenCV-backed
// implementation lives in video/opencv.
package video

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// DefaultFPS is used when a container does not report a frame rate.
const DefaultFPS = 30.0

// Sentinel errors wrapped by [Opener] implementations.
var (
	ErrOpen   = errors.New("cannot open video for reading")
	ErrCreate = errors.New("cannot create video writer")
)

// Props describes a stream as reported by its container.
type Props struct {
	FPS        float64
	Width      int
	Height     int
	FrameCount int // Container estimate; may be 0 or approximate.
}

// Normalized returns p with a usable frame rate.
func (p Props) Normalized() Props {
	if p.FPS <= 0 || math.IsNaN(p.FPS) || math.IsInf(p.FPS, 0) {
		p.FPS = DefaultFPS
	}
	return p
}

// Reader yields decoded frames in stream order.
type Reader interface {
	Props() Props
	// Read returns the next frame, or false when no frame is available.
	// End of stream and an undecodable frame are not distinguished.
	Read() (image.Image, bool)
	Close() error
}

// Writer appends frames to an encoded output file.
type Writer interface {
	Write(frame image.Image) error
	Close() error
}

// Opener creates readers and writers for paths on disk.
type Opener interface {
	Open(path string) (Reader, error)
	Create(path, fourcc string, p Props) (Writer, error)
}

// FrameFunc transforms one decoded frame into the frame to write.
type FrameFunc func(frame image.Image) (image.Image, error)

// Annotate reads every frame from r, passes it through fn, and writes the
// result to w, 1:1 and in order, until r runs dry. It returns the number of
// frames written. It does not close r or w.
func Annotate(r Reader, w Writer, fn FrameFunc) (int, error) {
	n := 0
	for {
		frame, ok := r.Read()
		if !ok {
			return n, nil
		}
		out, err := fn(frame)
		if err != nil {
			return n, fmt.Errorf("frame %d: %w", n, err)
		}
		if err := w.Write(out); err != nil {
			return n, fmt.Errorf("write frame %d: %w", n, err)
		}
		n++
	}
}

// WithGeometry returns a reader whose Props carry a frame size. When r
// already reports one it is returned as is. Otherwise the first frame is
// read to learn the size and handed back again by the next Read. ok is
// false when the size is unknown and no frame could be read.
//
// Closing the returned reader closes r.
func WithGeometry(r Reader) (Reader, bool) {
	p := r.Props()
	if p.Width > 0 && p.Height > 0 {
		return r, true
	}
	first, ok := r.Read()
	if !ok {
		return r, false
	}
	b := first.Bounds()
	p.Width, p.Height = b.Dx(), b.Dy()
	return &replayReader{Reader: r, props: p, first: first}, true
}

// replayReader replays one already-read frame before resuming r.
type replayReader struct {
	Reader
	props Props
	first image.Image
}

func (r *replayReader) Props() Props { return r.props }

func (r *replayReader) Read() (image.Image, bool) {
	if f := r.first; f != nil {
		r.first = nil
		return f, true
	}
	return r.Reader.Read()
}
