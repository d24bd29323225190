// Package genie maps button presses to piano notes.
//
// A Controller receives button transitions (from gestures or the keyboard),
// asks a NoteGenerator which key to play, sends the note to a Player and tells
// observers which notes are sounding.
package genie

import (
	"fmt"
	"strconv"
)

// Piano constants.
const (
	// LowestPianoKey is the MIDI note number of the lowest key (A0).
	LowestPianoKey = 21
	// NotesPerOctave is the number of semitones in an octave.
	NotesPerOctave = 12
	// NumPianoKeys is the number of keys on a full piano.
	NumPianoKeys = 88
	// DefaultTemperature is used when no usable temperature is configured.
	DefaultTemperature = 0.25
	// DefaultOctaves is the full-width keyboard.
	DefaultOctaves = 7
)

// ButtonMapping maps a button slot to the generator button it stands for.
type ButtonMapping map[int]int

var (
	// Mapping8 uses all eight generator buttons.
	Mapping8 = ButtonMapping{0: 0, 1: 1, 2: 2, 3: 3, 4: 4, 5: 5, 6: 6, 7: 7}
	// Mapping4 spreads four buttons across the generator's range.
	Mapping4 = ButtonMapping{0: 0, 1: 2, 2: 5, 3: 7}
)

// MappingFor returns the mapping for a button count of 4 or 8.
func MappingFor(numButtons int) (ButtonMapping, error) {
	switch numButtons {
	case 4:
		return Mapping4, nil
	case 8:
		return Mapping8, nil
	}
	return nil, fmt.Errorf("unsupported button count %d (want 4 or 8)", numButtons)
}

// KeyWhitelist returns the piano key indices (0 = A0) playable with the given
// number of octaves. Seven or more octaves cover the whole keyboard from A to
// C; fewer start on a C one octave up.
func KeyWhitelist(octaves int) []int {
	if octaves < 1 {
		octaves = 1
	}
	bonus := 0
	if octaves > 6 {
		bonus = 4
	}
	total := NotesPerOctave*octaves + bonus

	keys := make([]int, 0, total)
	for i := 0; i < total; i++ {
		k := i
		if octaves <= 6 {
			k = i + 3 + NotesPerOctave
		}
		if k >= NumPianoKeys {
			break
		}
		keys = append(keys, k)
	}
	return keys
}

// ClampTemperature limits t to (0, 1]. Non-positive values, negative ones
// included, and NaN fall back to DefaultTemperature.
func ClampTemperature(t float64) float64 {
	if !(t > 0) {
		return DefaultTemperature
	}
	if t > 1 {
		return 1
	}
	return t
}

// Keyboard names a key layout for button input.
type Keyboard string

const (
	// KeyboardDevice is the home-row layout.
	KeyboardDevice Keyboard = "device"
	// KeyboardMakey is the Makey Makey layout.
	KeyboardMakey Keyboard = "makey"
)

var keyLayouts = map[Keyboard][]string{
	KeyboardDevice: {"a", "s", "d", "f", "j", "k", "l", ";"},
	KeyboardMakey:  {"ArrowUp", "ArrowLeft", "ArrowDown", "ArrowRight", "w", "a", "s", "d"},
}

// ParseKeyboard validates a layout name. Empty selects KeyboardDevice.
func ParseKeyboard(s string) (Keyboard, error) {
	if s == "" {
		return KeyboardDevice, nil
	}
	k := Keyboard(s)
	if _, ok := keyLayouts[k]; !ok {
		return "", fmt.Errorf("unknown keyboard layout %q", s)
	}
	return k, nil
}

// ButtonForKey maps a key name to a button slot. Digits 1 through numButtons
// select that button; otherwise the layout is consulted.
func ButtonForKey(key string, numButtons int, layout Keyboard) (int, bool) {
	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		n, _ := strconv.Atoi(key)
		if n <= numButtons {
			return n - 1, true
		}
	}
	for i, k := range keyLayouts[layout] {
		if k == key {
			return i, true
		}
	}
	return 0, false
}
