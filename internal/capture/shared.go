package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoFrame is returned by a SharedFrame that has not received a frame yet.
var ErrNoFrame = errors.New("no frame captured yet")

// SharedFrame holds the most recent frame read by the pipeline so that other
// readers, such as the MJPEG stream, do not compete for the camera.
type SharedFrame struct {
	mu    sync.Mutex
	frame gocv.Mat
	seq   uint64
}

// NewSharedFrame creates an empty SharedFrame.
func NewSharedFrame() *SharedFrame {
	return &SharedFrame{frame: gocv.NewMat()}
}

// Set stores a copy of mat.
func (s *SharedFrame) Set(mat *gocv.Mat) {
	if mat == nil || mat.Empty() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	mat.CopyTo(&s.frame)
	s.seq++
}

// ReadFrame returns a copy of the latest frame. The caller closes it.
func (s *SharedFrame) ReadFrame() (*gocv.Mat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seq == 0 {
		return nil, ErrNoFrame
	}
	frame := s.frame.Clone()
	return &frame, nil
}

// Seq counts the frames stored so far.
func (s *SharedFrame) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Close releases the stored frame.
func (s *SharedFrame) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame.Close()
}
