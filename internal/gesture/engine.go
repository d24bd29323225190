package gesture

import (
	"fmt"

	"github.com/ayusman/gesturegenie/internal/detector"
)

// Result describes what the engine saw and did for one frame.
type Result struct {
	Hand      Hand      `json:"hand"`
	ThumbOpen bool      `json:"thumb_open"`
	Pressed   SlotState `json:"pressed"`
	Events    []Event   `json:"events,omitempty"`
}

// Engine runs the full per-frame pipeline: validation, hand and thumb
// classification, per-finger trigger evaluation and debounce.
//
// An Engine must be driven from a single goroutine, one frame at a time.
type Engine struct {
	tracker *Tracker
}

// NewEngine creates an Engine that reports button transitions to sink.
func NewEngine(sink ButtonSink) *Engine {
	return &Engine{tracker: NewTracker(sink)}
}

// Process ingests a raw set of landmarks. Anything other than 21 finite
// points is rejected with an error wrapping detector.ErrInvalidFrame.
func (e *Engine) Process(points []detector.Point3D) (Result, error) {
	frame, err := detector.ParseFrame(points)
	if err != nil {
		return Result{}, err
	}
	return e.ProcessFrame(&frame)
}

// ProcessFrame evaluates one frame. A nil frame or one with a non-finite
// coordinate is rejected before any state is touched, so no events are
// emitted for it.
func (e *Engine) ProcessFrame(frame *detector.Frame) (Result, error) {
	if frame == nil {
		return Result{}, fmt.Errorf("%w: nil frame", detector.ErrInvalidFrame)
	}
	if err := frame.Validate(); err != nil {
		return Result{}, err
	}

	hand := ClassifyHand(frame)
	thumbOpen := ThumbOpen(frame, hand)

	res := Result{Hand: hand, ThumbOpen: thumbOpen}
	for f := Index; f <= Pinky; f++ {
		joint, tip := f.Landmarks()
		triggered := Triggered(frame[joint], frame[tip])
		res.Events = append(res.Events, e.tracker.ProcessFinger(f.Slot(hand), triggered, thumbOpen)...)
	}
	res.Pressed = e.tracker.State()

	return res, nil
}

// State returns the current base slot state.
func (e *Engine) State() SlotState {
	return e.tracker.State()
}

// Reset starts a new session with every slot released and no events emitted.
func (e *Engine) Reset() {
	e.tracker.Reset()
}

// ReleaseAll emits the release pair for every pressed slot.
func (e *Engine) ReleaseAll() []Event {
	return e.tracker.ReleaseAll()
}
