// Package detector provides hand landmark types and the detectors that produce them.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrInvalidFrame is returned when a set of landmarks cannot form a frame.
var ErrInvalidFrame = errors.New("invalid landmark frame")

// Point3D represents a 3D point in space with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// finite reports whether all coordinates are real numbers.
func (p Point3D) finite() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Frame is one estimation's worth of landmarks. The index of each point is its
// anatomical identity.
type Frame [NumLandmarks]Point3D

// ParseFrame builds a Frame from an arbitrary slice of points.
// It fails with ErrInvalidFrame unless exactly NumLandmarks finite points are given.
func ParseFrame(points []Point3D) (Frame, error) {
	var f Frame
	if len(points) != NumLandmarks {
		return f, fmt.Errorf("%w: got %d points, want %d", ErrInvalidFrame, len(points), NumLandmarks)
	}
	copy(f[:], points)
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate checks that every coordinate of the frame is finite.
func (f *Frame) Validate() error {
	for i, p := range f {
		if !p.finite() {
			return fmt.Errorf("%w: landmark %d is not a finite point", ErrInvalidFrame, i)
		}
	}
	return nil
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     Frame   `json:"points"`
	Handedness string  `json:"handedness"` // "Left" or "Right" as reported by the estimator
	Score      float64 `json:"score"`
}

// Mirror returns a copy of the hand flipped horizontally inside an image of the
// given width. Coordinates are mapped x -> width - x.
func (h HandLandmarks) Mirror(width float64) HandLandmarks {
	m := h
	for i := range m.Points {
		m.Points[i].X = width - h.Points[i].X
	}
	switch h.Handedness {
	case "Left":
		m.Handedness = "Right"
	case "Right":
		m.Handedness = "Left"
	}
	return m
}
