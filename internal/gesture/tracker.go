package gesture

// SlotState holds whether each base slot is currently counted as pressed.
type SlotState [NumFingers]bool

// Tracker is the debounce state machine for the four base slots. It emits an
// event only when a slot changes state, so holding a pose across frames fires
// once.
//
// A Tracker is constructed once per session and is not safe for concurrent use.
type Tracker struct {
	state SlotState
	sink  ButtonSink
}

// NewTracker creates a Tracker that reports transitions to sink.
func NewTracker(sink ButtonSink) *Tracker {
	if sink == nil {
		sink = SinkFuncs{}
	}
	return &Tracker{sink: sink}
}

// State returns a copy of the current slot state.
func (t *Tracker) State() SlotState {
	return t.state
}

// Reset clears every slot without emitting events.
func (t *Tracker) Reset() {
	t.state = SlotState{}
}

// ProcessFinger applies one finger's reading to its base slot and returns the
// events it emitted.
//
// A press emits Down(slot), plus Down(slot+ChordOffset) when the thumb is open.
// A release always emits Up(slot) and Up(slot+ChordOffset), whatever the thumb
// did, even if the chord slot was never pressed. The slot state is updated
// before the sink is called.
func (t *Tracker) ProcessFinger(slot int, triggered, thumbOpen bool) []Event {
	if slot < 0 || slot >= NumFingers {
		return nil
	}

	switch {
	case triggered && !t.state[slot]:
		t.state[slot] = true
		events := []Event{{Slot: slot, Transition: Down}}
		if thumbOpen {
			events = append(events, Event{Slot: slot + ChordOffset, Transition: Down})
		}
		t.emit(events)
		return events

	case !triggered && t.state[slot]:
		t.state[slot] = false
		events := []Event{
			{Slot: slot, Transition: Up},
			{Slot: slot + ChordOffset, Transition: Up},
		}
		t.emit(events)
		return events
	}

	return nil
}

// ReleaseAll releases every pressed slot as if its finger had been raised.
func (t *Tracker) ReleaseAll() []Event {
	var events []Event
	for slot := range t.state {
		events = append(events, t.ProcessFinger(slot, false, false)...)
	}
	return events
}

func (t *Tracker) emit(events []Event) {
	for _, e := range events {
		if e.Transition == Down {
			t.sink.ButtonDown(e.Slot)
		} else {
			t.sink.ButtonUp(e.Slot)
		}
	}
}
