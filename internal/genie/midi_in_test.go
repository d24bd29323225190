package genie

import (
	"reflect"
	"testing"

	"gitlab.com/gomidi/midi/v2"
)

type pressRecorder struct {
	presses  []int
	releases []int
	sources  []Source
}

func (p *pressRecorder) Press(slot int, source Source) {
	p.presses = append(p.presses, slot)
	p.sources = append(p.sources, source)
}

func (p *pressRecorder) Release(slot int) {
	p.releases = append(p.releases, slot)
}

func TestMIDIInput_Handle(t *testing.T) {
	rec := &pressRecorder{}
	in := NewMIDIInput(rec, DefaultMIDIInConfig(), nil)

	in.Handle(midi.NoteOn(0, 60, 100), 0)
	in.Handle(midi.NoteOn(0, 67, 80), 0)
	in.Handle(midi.NoteOff(0, 60), 0)
	// Note on with zero velocity releases.
	in.Handle(midi.NoteOn(0, 67, 0), 0)

	if want := []int{0, 7}; !reflect.DeepEqual(rec.presses, want) {
		t.Errorf("presses = %v, want %v", rec.presses, want)
	}
	if want := []int{0, 7}; !reflect.DeepEqual(rec.releases, want) {
		t.Errorf("releases = %v, want %v", rec.releases, want)
	}
	for _, s := range rec.sources {
		if s != SourceMIDI {
			t.Errorf("source = %q, want %q", s, SourceMIDI)
		}
	}
}

func TestMIDIInput_IgnoresOutOfRange(t *testing.T) {
	rec := &pressRecorder{}
	in := NewMIDIInput(rec, MIDIInConfig{BaseNote: 48}, nil)

	in.Handle(midi.NoteOn(0, 47, 100), 0)
	in.Handle(midi.NoteOn(0, 56, 100), 0)
	in.Handle(midi.ControlChange(0, 64, 127), 0)

	if len(rec.presses) != 0 || len(rec.releases) != 0 {
		t.Errorf("presses = %v, releases = %v, want none", rec.presses, rec.releases)
	}
}

func TestMIDIInput_Slot(t *testing.T) {
	in := NewMIDIInput(&pressRecorder{}, MIDIInConfig{BaseNote: 36}, nil)

	tests := []struct {
		key  uint8
		slot int
		ok   bool
	}{
		{35, 0, false},
		{36, 0, true},
		{40, 4, true},
		{43, 7, true},
		{44, 0, false},
	}
	for _, tt := range tests {
		slot, ok := in.Slot(tt.key)
		if slot != tt.slot || ok != tt.ok {
			t.Errorf("Slot(%d) = %d, %v, want %d, %v", tt.key, slot, ok, tt.slot, tt.ok)
		}
	}
}

func TestMIDIInput_DrivesController(t *testing.T) {
	c, _, player := newTestController(DefaultSettings())
	in := NewMIDIInput(c, DefaultMIDIInConfig(), nil)

	var events []NoteEvent
	c.Subscribe(func(e NoteEvent) { events = append(events, e) })

	in.Handle(midi.NoteOn(0, 62, 100), 0)
	in.Handle(midi.NoteOff(0, 62), 0)

	if len(events) != 2 || events[0].Slot != 2 || events[0].Source != SourceMIDI || events[1].Down {
		t.Errorf("events = %+v, want slot 2 down and up from midi", events)
	}
	if len(player.played()) != 2 {
		t.Errorf("played = %+v", player.played())
	}
}

func TestMIDIInput_CloseUnattached(t *testing.T) {
	in := NewMIDIInput(&pressRecorder{}, DefaultMIDIInConfig(), nil)
	if err := in.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
