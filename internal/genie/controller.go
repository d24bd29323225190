package genie

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Source says where a button press came from.
type Source string

const (
	SourceGesture Source = "gesture"
	SourceKey     Source = "key"
	SourceMIDI    Source = "midi"
)

// NoteEvent reports a note starting or stopping.
type NoteEvent struct {
	Slot   int       `json:"slot"`
	Note   int       `json:"note"`
	Pitch  int       `json:"pitch"`
	Down   bool      `json:"down"`
	Source Source    `json:"source"`
	At     time.Time `json:"at"`
}

// Observer receives note events. Observers run on the caller's goroutine
// after the controller has released its lock.
type Observer func(NoteEvent)

// Settings are the user-adjustable controller parameters.
type Settings struct {
	Temperature float64  `json:"temperature" toml:"temperature" yaml:"temperature"`
	NumButtons  int      `json:"num_buttons" toml:"num_buttons" yaml:"num_buttons"`
	Octaves     int      `json:"octaves" toml:"octaves" yaml:"octaves"`
	Keyboard    Keyboard `json:"keyboard" toml:"keyboard" yaml:"keyboard"`
}

// DefaultSettings returns eight buttons over the full keyboard.
func DefaultSettings() Settings {
	return Settings{
		Temperature: DefaultTemperature,
		NumButtons:  8,
		Octaves:     DefaultOctaves,
		Keyboard:    KeyboardDevice,
	}
}

// Validate checks the settings and normalizes the temperature.
func (s *Settings) Validate() error {
	if _, err := MappingFor(s.NumButtons); err != nil {
		return err
	}
	if s.Octaves < 1 || s.Octaves > DefaultOctaves {
		return fmt.Errorf("octaves must be between 1 and %d, got %d", DefaultOctaves, s.Octaves)
	}
	k, err := ParseKeyboard(string(s.Keyboard))
	if err != nil {
		return err
	}
	s.Keyboard = k
	s.Temperature = ClampTemperature(s.Temperature)
	return nil
}

// heldNote is what a held button is sounding.
type heldNote struct {
	note   int
	pitch  int
	source Source
}

// Controller turns button presses into notes. It implements the gesture
// engine's button sink and is safe for concurrent use.
type Controller struct {
	generator NoteGenerator
	player    Player
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	settings   Settings
	mapping    ButtonMapping
	whitelist  []int
	held       map[int]heldNote
	sustaining bool
	sustained  []int
	observers  []Observer
}

// NewController creates a Controller. Invalid settings fall back to the defaults.
func NewController(gen NoteGenerator, player Player, settings Settings, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if gen == nil {
		gen = NewContourGenerator(0)
	}
	if player == nil {
		player = NewLogPlayer(logger)
	}

	c := &Controller{
		generator: gen,
		player:    player,
		logger:    logger,
		now:       time.Now,
		held:      make(map[int]heldNote),
	}
	if err := c.apply(settings); err != nil {
		logger.Warn("invalid genie settings, using defaults", "err", err)
		c.apply(DefaultSettings())
	}
	return c
}

// Subscribe registers an observer for note events.
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Settings returns the current settings.
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// UpdateSettings validates and applies new settings. Held notes keep sounding.
func (c *Controller) UpdateSettings(s Settings) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apply(s)
}

func (c *Controller) apply(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	mapping, _ := MappingFor(s.NumButtons)
	c.settings = s
	c.mapping = mapping
	c.whitelist = KeyWhitelist(s.Octaves)
	return nil
}

// ButtonDown implements gesture.ButtonSink.
func (c *Controller) ButtonDown(slot int) {
	c.Press(slot, SourceGesture)
}

// ButtonUp implements gesture.ButtonSink.
func (c *Controller) ButtonUp(slot int) {
	c.Release(slot)
}

// Press starts a note for slot. Pressing a held slot or a slot outside the
// active mapping does nothing.
func (c *Controller) Press(slot int, source Source) {
	c.mu.Lock()
	if _, ok := c.held[slot]; ok {
		c.mu.Unlock()
		return
	}
	button, ok := c.mapping[slot]
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("button not mapped", "slot", slot, "buttons", c.settings.NumButtons)
		return
	}

	note := c.generator.Next(button, c.whitelist, c.settings.Temperature)
	pitch := LowestPianoKey + note
	if err := c.player.NoteOn(pitch, slot); err != nil {
		c.logger.Warn("note on failed", "pitch", pitch, "slot", slot, "err", err)
	}
	c.held[slot] = heldNote{note: note, pitch: pitch, source: source}
	observers := c.observers
	c.mu.Unlock()

	c.notify(observers, NoteEvent{Slot: slot, Note: note, Pitch: pitch, Down: true, Source: source, At: c.now()})
}

// Release stops the note held by slot, or hands it to the sustain pedal.
// Releasing a slot that is not held does nothing.
func (c *Controller) Release(slot int) {
	c.mu.Lock()
	h, ok := c.held[slot]
	if !ok {
		c.mu.Unlock()
		return
	}
	delete(c.held, slot)

	if c.sustaining {
		c.sustained = append(c.sustained, h.pitch)
	} else if err := c.player.NoteOff(h.pitch, slot); err != nil {
		c.logger.Warn("note off failed", "pitch", h.pitch, "slot", slot, "err", err)
	}
	observers := c.observers
	c.mu.Unlock()

	c.notify(observers, NoteEvent{Slot: slot, Note: h.note, Pitch: h.pitch, Down: false, Source: h.source, At: c.now()})
}

// SetSustain presses or lifts the sustain pedal. Lifting it stops every note
// released while it was down.
func (c *Controller) SetSustain(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sustaining = on
	if on {
		return
	}
	for _, pitch := range c.sustained {
		if err := c.player.NoteOff(pitch, -1); err != nil {
			c.logger.Warn("sustain release failed", "pitch", pitch, "err", err)
		}
	}
	c.sustained = nil
}

// Sustaining reports whether the pedal is down.
func (c *Controller) Sustaining() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sustaining
}

// Held returns the pitches currently held, keyed by slot.
func (c *Controller) Held() map[int]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	held := make(map[int]int, len(c.held))
	for slot, h := range c.held {
		held[slot] = h.pitch
	}
	return held
}

// Reset clears the generator's melodic context.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generator.Reset()
	c.logger.Info("genie reset")
}

// HandleKey applies a keyboard event. Space holds the sustain pedal, "0" and
// "r" reset the generator, and mapped keys press or release buttons.
// Auto-repeated key downs are ignored.
func (c *Controller) HandleKey(key string, down, repeat bool) {
	if down && repeat {
		return
	}

	switch key {
	case " ":
		c.SetSustain(down)
		return
	case "0", "r":
		if down {
			c.Reset()
		}
		return
	}

	settings := c.Settings()
	slot, ok := ButtonForKey(key, settings.NumButtons, settings.Keyboard)
	if !ok {
		return
	}
	if down {
		c.Press(slot, SourceKey)
	} else {
		c.Release(slot)
	}
}

// ReleaseAll lifts the pedal and stops every held note.
func (c *Controller) ReleaseAll() {
	for slot := range c.Held() {
		c.Release(slot)
	}
	c.SetSustain(false)
}

func (c *Controller) notify(observers []Observer, e NoteEvent) {
	for _, o := range observers {
		o(e)
	}
}
