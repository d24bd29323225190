package genie

import (
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// MIDIInConfig configures a MIDIInput.
type MIDIInConfig struct {
	// Enabled turns the input on.
	Enabled bool `toml:"enabled" yaml:"enabled" json:"enabled"`
	// Port is a substring of the input port name. Empty selects the first port.
	Port string `toml:"port" yaml:"port" json:"port"`
	// BaseNote is the MIDI key that presses slot 0; the next seven keys press
	// slots 1 to 7.
	BaseNote uint8 `toml:"base_note" yaml:"base_note" json:"base_note"`
}

// DefaultMIDIInConfig starts the buttons at middle C.
func DefaultMIDIInConfig() MIDIInConfig {
	return MIDIInConfig{BaseNote: 60}
}

// ButtonPresser is the part of the Controller a MIDIInput drives.
type ButtonPresser interface {
	Press(slot int, source Source)
	Release(slot int)
}

// MIDIInput turns notes from a MIDI keyboard into button presses.
type MIDIInput struct {
	target ButtonPresser
	base   uint8
	logger *slog.Logger

	mu   sync.Mutex
	port drivers.In
	stop func()
}

// NewMIDIInput creates an input that is not attached to a port. Messages
// passed to Handle press buttons on target.
func NewMIDIInput(target ButtonPresser, cfg MIDIInConfig, logger *slog.Logger) *MIDIInput {
	if logger == nil {
		logger = slog.Default()
	}
	return &MIDIInput{target: target, base: cfg.BaseNote, logger: logger}
}

// OpenMIDIInput listens on an input port through the registered MIDI driver.
func OpenMIDIInput(target ButtonPresser, cfg MIDIInConfig, logger *slog.Logger) (*MIDIInput, error) {
	var (
		in  drivers.In
		err error
	)
	if cfg.Port != "" {
		in, err = midi.FindInPort(cfg.Port)
	} else {
		in, err = midi.InPort(0)
	}
	if err != nil {
		return nil, fmt.Errorf("find midi input: %w", err)
	}

	m := NewMIDIInput(target, cfg, logger)
	stop, err := midi.ListenTo(in, m.Handle, midi.HandleError(func(err error) {
		m.logger.Warn("midi input error", "port", in.String(), "err", err)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen on midi input %s: %w", in, err)
	}

	m.port = in
	m.stop = stop
	m.logger.Info("midi input open", "port", in.String(), "base_note", cfg.BaseNote)
	return m, nil
}

// InPorts lists the names of the available MIDI inputs.
func InPorts() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// Slot returns the button slot a MIDI key presses.
func (m *MIDIInput) Slot(key uint8) (int, bool) {
	slot := int(key) - int(m.base)
	if slot < 0 || slot >= len(Mapping8) {
		return 0, false
	}
	return slot, true
}

// Handle applies one MIDI message. It has the midi.ListenTo callback
// signature. A note on with zero velocity is a note off.
func (m *MIDIInput) Handle(msg midi.Message, timestampms int32) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteStart(&channel, &key, &velocity):
		if slot, ok := m.Slot(key); ok {
			m.target.Press(slot, SourceMIDI)
		}
	case msg.GetNoteEnd(&channel, &key):
		if slot, ok := m.Slot(key); ok {
			m.target.Release(slot)
		}
	}
}

// Close stops listening and closes the port.
func (m *MIDIInput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
	if m.port != nil {
		err := m.port.Close()
		m.port = nil
		return err
	}
	return nil
}
