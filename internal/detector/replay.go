package detector

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ErrEndOfReplay is returned by ReplayDetector once every recorded frame was served.
var ErrEndOfReplay = errors.New("end of replay")

// ReplayDetector serves hands from a recording instead of analyzing frames.
// Each line of a recording holds one hand in the MediaPipe wire format; an
// empty object ({}) or blank line stands for a frame without a hand.
type ReplayDetector struct {
	mu     sync.Mutex
	frames []replayFrame
	index  int
	loop   bool
}

// ReadRecording parses a JSON-lines landmark recording.
// A bad line does not abort the read. Its frame is kept as an error wrapping
// ErrInvalidFrame and surfaced when that frame is detected. Only a failure to
// read r fails the whole recording.
func ReadRecording(r io.Reader) ([][]HandLandmarks, []error, error) {
	var (
		frames [][]HandLandmarks
		errs   []error
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || bytes.Equal(data, []byte("{}")) {
			frames = append(frames, nil)
			errs = append(errs, nil)
			continue
		}

		var h jsonHand
		if err := json.Unmarshal(data, &h); err != nil {
			frames = append(frames, nil)
			errs = append(errs, fmt.Errorf("line %d: %w: %v", line, ErrInvalidFrame, err))
			continue
		}
		lm, err := h.toHandLandmarks()
		if err != nil {
			frames = append(frames, nil)
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		frames = append(frames, []HandLandmarks{lm})
		errs = append(errs, nil)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read recording: %w", err)
	}
	return frames, errs, nil
}

// replayFrame pairs a recorded frame with its decode error, if any.
type replayFrame struct {
	hands []HandLandmarks
	err   error
}

// NewReplayDetector creates a detector from a recording.
func NewReplayDetector(r io.Reader, loop bool) (*ReplayDetector, error) {
	frames, errs, err := ReadRecording(r)
	if err != nil {
		return nil, err
	}
	d := &ReplayDetector{loop: loop, frames: make([]replayFrame, len(frames))}
	for i := range frames {
		d.frames[i] = replayFrame{hands: frames[i], err: errs[i]}
	}
	return d, nil
}

// OpenReplay opens a recording file.
func OpenReplay(path string, loop bool) (*ReplayDetector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()
	return NewReplayDetector(f, loop)
}

// Detect returns the next recorded frame. The Mat is ignored and may be nil.
func (d *ReplayDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.index >= len(d.frames) {
		if !d.loop || len(d.frames) == 0 {
			return nil, ErrEndOfReplay
		}
		d.index = 0
	}

	f := d.frames[d.index]
	d.index++
	if f.err != nil {
		return nil, f.err
	}
	return f.hands, nil
}

// Len returns the number of recorded frames.
func (d *ReplayDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.frames)
}

// Close is a no-op for the replay detector.
func (d *ReplayDetector) Close() error {
	return nil
}
