// Package tray provides a system tray menu for Gesture Genie.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/gesturegenie/internal/genie"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onReset  func()
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLastNote *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for the enable toggle.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnReset sets the callback for the reset item.
func (t *Tray) OnReset(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReset = fn
}

// OnOpen sets the callback for the open web UI item.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback for the quit item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called and must be called
// from the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, ending Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Genie")
	systray.SetTooltip("Gesture Genie")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand tracking")
	systray.AddSeparator()
	t.menuLastNote = systray.AddMenuItem("Last: none", "Last played note")
	t.menuLastNote.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuReset := systray.AddMenuItem("Reset Genie", "Forget the melody so far")
	menuOpen := systray.AddMenuItem("Open Web UI...", "Open the player in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Gesture Genie")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuReset.ClickedCh:
				t.call(&t.onReset)
			case <-menuOpen.ClickedCh:
				t.call(&t.onOpen)
			case <-menuQuit.ClickedCh:
				t.call(&t.onQuit)
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback stored in *fn outside the lock.
func (t *Tray) call(fn *func()) {
	t.mu.RLock()
	callback := *fn
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// ShowNote is a genie.Observer that displays the latest note start.
func (t *Tray) ShowNote(e genie.NoteEvent) {
	if !e.Down {
		return
	}
	t.SetLastNote(fmt.Sprintf("%s (button %d)", PitchName(e.Pitch), e.Slot))
}

// SetLastNote updates the last note display in the menu.
func (t *Tray) SetLastNote(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastNote != nil {
		if name == "" {
			t.menuLastNote.SetTitle("Last: none")
		} else {
			t.menuLastNote.SetTitle("Last: " + name)
		}
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// PitchName returns the scientific name of a MIDI pitch, like "A0" for 21.
func PitchName(pitch int) string {
	if pitch < 0 || pitch > 127 {
		return fmt.Sprintf("pitch %d", pitch)
	}
	return fmt.Sprintf("%s%d", pitchClasses[pitch%12], pitch/12-1)
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}
