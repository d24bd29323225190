package genie

import (
	"math"
	"testing"
)

func TestMappingFor(t *testing.T) {
	m, err := MappingFor(4)
	if err != nil {
		t.Fatalf("MappingFor(4) error = %v", err)
	}
	want := map[int]int{0: 0, 1: 2, 2: 5, 3: 7}
	for slot, button := range want {
		if m[slot] != button {
			t.Errorf("4-button slot %d -> %d, want %d", slot, m[slot], button)
		}
	}
	if _, ok := m[5]; ok {
		t.Error("4-button mapping should not contain slot 5")
	}

	m, err = MappingFor(8)
	if err != nil {
		t.Fatalf("MappingFor(8) error = %v", err)
	}
	for slot := 0; slot < 8; slot++ {
		if m[slot] != slot {
			t.Errorf("8-button slot %d -> %d", slot, m[slot])
		}
	}

	if _, err := MappingFor(6); err == nil {
		t.Error("expected error for 6 buttons")
	}
}

func TestKeyWhitelist(t *testing.T) {
	tests := []struct {
		octaves   int
		wantLen   int
		wantFirst int
		wantLast  int
	}{
		{octaves: 7, wantLen: 88, wantFirst: 0, wantLast: 87},
		{octaves: 6, wantLen: 72, wantFirst: 15, wantLast: 86},
		{octaves: 4, wantLen: 48, wantFirst: 15, wantLast: 62},
		{octaves: 1, wantLen: 12, wantFirst: 15, wantLast: 26},
		{octaves: 0, wantLen: 12, wantFirst: 15, wantLast: 26},
	}

	for _, tt := range tests {
		keys := KeyWhitelist(tt.octaves)
		if len(keys) != tt.wantLen {
			t.Errorf("octaves %d: len = %d, want %d", tt.octaves, len(keys), tt.wantLen)
			continue
		}
		if keys[0] != tt.wantFirst || keys[len(keys)-1] != tt.wantLast {
			t.Errorf("octaves %d: range [%d, %d], want [%d, %d]",
				tt.octaves, keys[0], keys[len(keys)-1], tt.wantFirst, tt.wantLast)
		}
	}
}

func TestClampTemperature(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.5, 0.5},
		{1, 1},
		{3, 1},
		{0, DefaultTemperature},
		{-1, DefaultTemperature},
		// Negative values do not pass through.
		{-0.5, DefaultTemperature},
		{-3, DefaultTemperature},
		{math.NaN(), DefaultTemperature},
		{math.Inf(1), 1},
	}
	for _, tt := range tests {
		if got := ClampTemperature(tt.in); got != tt.want {
			t.Errorf("ClampTemperature(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestButtonForKey(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		numButtons int
		layout     Keyboard
		wantSlot   int
		wantOK     bool
	}{
		{name: "digit", key: "3", numButtons: 8, layout: KeyboardDevice, wantSlot: 2, wantOK: true},
		{name: "digit past button count", key: "6", numButtons: 4, layout: KeyboardDevice, wantOK: false},
		{name: "home row", key: "j", numButtons: 8, layout: KeyboardDevice, wantSlot: 4, wantOK: true},
		{name: "semicolon", key: ";", numButtons: 8, layout: KeyboardDevice, wantSlot: 7, wantOK: true},
		{name: "makey arrow", key: "ArrowDown", numButtons: 8, layout: KeyboardMakey, wantSlot: 2, wantOK: true},
		{name: "makey letter", key: "a", numButtons: 8, layout: KeyboardMakey, wantSlot: 5, wantOK: true},
		{name: "arrow on device layout", key: "ArrowUp", numButtons: 8, layout: KeyboardDevice, wantOK: false},
		{name: "unknown key", key: "q", numButtons: 8, layout: KeyboardDevice, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, ok := ButtonForKey(tt.key, tt.numButtons, tt.layout)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && slot != tt.wantSlot {
				t.Errorf("slot = %d, want %d", slot, tt.wantSlot)
			}
		})
	}
}

func TestParseKeyboard(t *testing.T) {
	if k, err := ParseKeyboard(""); err != nil || k != KeyboardDevice {
		t.Errorf("ParseKeyboard(\"\") = %q, %v", k, err)
	}
	if k, err := ParseKeyboard("makey"); err != nil || k != KeyboardMakey {
		t.Errorf("ParseKeyboard(makey) = %q, %v", k, err)
	}
	if _, err := ParseKeyboard("dvorak"); err == nil {
		t.Error("expected error for unknown layout")
	}
}
