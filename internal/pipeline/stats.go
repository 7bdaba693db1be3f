package pipeline

import "time"

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total       int // Files considered (1 for a single-file source).
	Current     int
	Images      int
	Videos      int
	Skipped     int
	Frames      int
	Detections  int
	OutputBytes int64
	VideoTime   time.Duration // Wall time spent inside the video handler.
}

// Processed is the number of files that produced an output.
func (s *RunStats) Processed() int {
	return s.Images + s.Videos
}
