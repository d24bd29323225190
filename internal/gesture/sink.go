package gesture

import (
	"fmt"
	"sync"
)

// Slot ranges. Base slots 0-3 are the bare finger buttons; chord slots 4-7
// accompany a base slot while the thumb is open.
const (
	ChordOffset = NumFingers
	NumSlots    = 2 * NumFingers
)

// ButtonSink receives the button transitions produced by the engine.
type ButtonSink interface {
	ButtonDown(slot int)
	ButtonUp(slot int)
}

// Transition is the direction of a button event.
type Transition string

const (
	Down Transition = "down"
	Up   Transition = "up"
)

// Event is a single button transition.
type Event struct {
	Slot       int        `json:"slot"`
	Transition Transition `json:"transition"`
}

// IsChord reports whether the event targets a chord slot.
func (e Event) IsChord() bool {
	return e.Slot >= ChordOffset
}

func (e Event) String() string {
	return fmt.Sprintf("%s(%d)", e.Transition, e.Slot)
}

// SinkFuncs adapts a pair of functions to ButtonSink. Nil functions are skipped.
type SinkFuncs struct {
	Down func(slot int)
	Up   func(slot int)
}

func (s SinkFuncs) ButtonDown(slot int) {
	if s.Down != nil {
		s.Down(slot)
	}
}

func (s SinkFuncs) ButtonUp(slot int) {
	if s.Up != nil {
		s.Up(slot)
	}
}

// MultiSink forwards every transition to each sink in order.
type MultiSink []ButtonSink

func (m MultiSink) ButtonDown(slot int) {
	for _, s := range m {
		s.ButtonDown(slot)
	}
}

func (m MultiSink) ButtonUp(slot int) {
	for _, s := range m {
		s.ButtonUp(slot)
	}
}

// Recorder is a ButtonSink that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) ButtonDown(slot int) {
	r.add(Event{Slot: slot, Transition: Down})
}

func (r *Recorder) ButtonUp(slot int) {
	r.add(Event{Slot: slot, Transition: Up})
}

func (r *Recorder) add(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Reset forgets all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
