package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// ReplayDetector plays back a recorded landmark stream, ignoring the frame
// it is given. A nil entry replays a frame in which no hand was seen.
type ReplayDetector struct {
	mu     sync.Mutex
	frames []*HandLandmarks
	index  int
	loop   bool
}

// NewReplayDetector creates a detector replaying frames in order.
// When loop is false, Detect reports no hand once the stream is exhausted.
func NewReplayDetector(frames []*HandLandmarks, loop bool) *ReplayDetector {
	return &ReplayDetector{frames: frames, loop: loop}
}

// Detect returns the next recorded frame.
func (r *ReplayDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.frames) == 0 {
		return nil, nil
	}
	if r.index >= len(r.frames) {
		if !r.loop {
			return nil, nil
		}
		r.index = 0
	}

	h := r.frames[r.index]
	r.index++
	if h == nil {
		return nil, nil
	}
	return []HandLandmarks{*h}, nil
}

// Done reports whether a non-looping replay has been exhausted.
func (r *ReplayDetector) Done() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.loop && r.index >= len(r.frames)
}

// Close is a no-op.
func (r *ReplayDetector) Close() error {
	return nil
}
