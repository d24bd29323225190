package genie

import (
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Player makes notes audible.
type Player interface {
	// NoteOn starts pitch (a MIDI note number) for the given button.
	NoteOn(pitch, button int) error
	// NoteOff stops pitch. Button is -1 for notes released by the sustain pedal.
	NoteOff(pitch, button int) error
	// Close silences the player and releases its resources.
	Close() error
}

// LogPlayer writes notes to a logger instead of making sound.
type LogPlayer struct {
	logger *slog.Logger
}

// NewLogPlayer creates a LogPlayer. A nil logger uses slog.Default().
func NewLogPlayer(logger *slog.Logger) *LogPlayer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPlayer{logger: logger}
}

func (p *LogPlayer) NoteOn(pitch, button int) error {
	p.logger.Info("note on", "pitch", pitch, "name", midi.Note(pitch).String(), "button", button)
	return nil
}

func (p *LogPlayer) NoteOff(pitch, button int) error {
	p.logger.Info("note off", "pitch", pitch, "name", midi.Note(pitch).String(), "button", button)
	return nil
}

func (p *LogPlayer) Close() error { return nil }

// MIDIConfig configures a MIDIPlayer.
type MIDIConfig struct {
	// Port is a substring of the output port name. Empty selects the first port.
	Port     string `toml:"port" yaml:"port" json:"port"`
	Channel  uint8  `toml:"channel" yaml:"channel" json:"channel"`
	Velocity uint8  `toml:"velocity" yaml:"velocity" json:"velocity"`
}

// DefaultMIDIConfig returns channel 0 at velocity 100.
func DefaultMIDIConfig() MIDIConfig {
	return MIDIConfig{Velocity: 100}
}

// MIDIPlayer sends notes to a MIDI output.
type MIDIPlayer struct {
	mu       sync.Mutex
	send     func(midi.Message) error
	port     drivers.Out
	channel  uint8
	velocity uint8
	sounding map[uint8]int
}

// NewMIDIPlayer creates a player around a send function, such as the one
// returned by midi.SendTo.
func NewMIDIPlayer(send func(midi.Message) error, cfg MIDIConfig) *MIDIPlayer {
	if cfg.Velocity == 0 {
		cfg.Velocity = DefaultMIDIConfig().Velocity
	}
	return &MIDIPlayer{
		send:     send,
		channel:  cfg.Channel & 0x0f,
		velocity: min(cfg.Velocity, 127),
		sounding: make(map[uint8]int),
	}
}

// OpenMIDIPlayer opens an output port through the registered MIDI driver.
func OpenMIDIPlayer(cfg MIDIConfig) (*MIDIPlayer, error) {
	var (
		out drivers.Out
		err error
	)
	if cfg.Port != "" {
		out, err = midi.FindOutPort(cfg.Port)
	} else {
		out, err = midi.OutPort(0)
	}
	if err != nil {
		return nil, fmt.Errorf("find midi output: %w", err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open midi output %s: %w", out, err)
	}

	p := NewMIDIPlayer(send, cfg)
	p.port = out
	return p, nil
}

// OutPorts lists the names of the available MIDI outputs.
func OutPorts() []string {
	var names []string
	for _, out := range midi.GetOutPorts() {
		names = append(names, out.String())
	}
	return names
}

func (p *MIDIPlayer) NoteOn(pitch, button int) error {
	key, err := midiKey(pitch)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.send(midi.NoteOn(p.channel, key, p.velocity)); err != nil {
		return fmt.Errorf("note on %d: %w", pitch, err)
	}
	p.sounding[key]++
	return nil
}

func (p *MIDIPlayer) NoteOff(pitch, button int) error {
	key, err := midiKey(pitch)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.send(midi.NoteOff(p.channel, key)); err != nil {
		return fmt.Errorf("note off %d: %w", pitch, err)
	}
	if p.sounding[key] > 1 {
		p.sounding[key]--
	} else {
		delete(p.sounding, key)
	}
	return nil
}

// Close releases any notes still sounding and closes the port.
func (p *MIDIPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for key := range p.sounding {
		if err := p.send(midi.NoteOff(p.channel, key)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.sounding = make(map[uint8]int)

	if p.port != nil {
		if err := p.port.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func midiKey(pitch int) (uint8, error) {
	if pitch < 0 || pitch > 127 {
		return 0, fmt.Errorf("pitch %d out of MIDI range", pitch)
	}
	return uint8(pitch), nil
}
