// Package metrics counts what a run did (files, frames, detections,
// inference latency) in a private Prometheus registry that can be written
// out as a node_exporter textfile at the end of the run.
//
// All methods are safe on a nil *Recorder, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/backmassage/wastedetect/internal/detect"
)

const namespace = "wastedetect"

// Recorder owns the run's collectors.
type Recorder struct {
	reg        *prometheus.Registry
	files      *prometheus.CounterVec
	frames     prometheus.Counter
	detections *prometheus.CounterVec
	inference  prometheus.Histogram
	finished   prometheus.Gauge
}

// New registers a fresh set of collectors.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "Source files seen, by media kind and outcome.",
		}, []string{"kind", "outcome"}),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_frames_total",
			Help:      "Video frames annotated and written.",
		}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Objects detected, by class label.",
		}, []string{"label"}),
		inference: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Wall time of a single detector call.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_finished_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
	}
	r.reg.MustRegister(r.files, r.frames, r.detections, r.inference, r.finished)
	return r
}

// FileProcessed counts a file of kind ("image" or "video") that was handled.
func (r *Recorder) FileProcessed(kind string) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(kind, "processed").Inc()
}

// FileSkipped counts a file that was not handled.
func (r *Recorder) FileSkipped(kind string) {
	if r == nil {
		return
	}
	r.files.WithLabelValues(kind, "skipped").Inc()
}

// Frames adds n written video frames.
func (r *Recorder) Frames(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.frames.Add(float64(n))
}

// Inference records one detector call and its results.
func (r *Recorder) Inference(d time.Duration, dets []detect.Detection) {
	if r == nil {
		return
	}
	r.inference.Observe(d.Seconds())
	for _, det := range dets {
		r.detections.WithLabelValues(det.Label).Inc()
	}
}

// Finish stamps the completion time.
func (r *Recorder) Finish(t time.Time) {
	if r == nil {
		return
	}
	r.finished.Set(float64(t.Unix()))
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.Gatherers{}
	}
	return r.reg
}

// WriteTextfile atomically writes every metric to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.Gatherer())
}
