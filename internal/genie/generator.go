package genie

import (
	"math"
	"math/rand"
	"sort"
)

// NoteGenerator chooses the piano key for a button press.
type NoteGenerator interface {
	// Next returns a key index (0 = A0) drawn from whitelist for the given
	// generator button (0-7). Higher temperature means more variety.
	Next(button int, whitelist []int, temperature float64) int

	// Reset forgets the melodic context.
	Reset()
}

// generatorButtons is the number of buttons the generator understands.
const generatorButtons = 8

// ContourGenerator is a lightweight stand-in for a learned button-to-note
// model. The first note of a phrase lands in the button's band of the
// keyboard. After that the melody follows the contour of the buttons: a
// higher button plays a higher key, a lower button a lower key and the same
// button repeats the key. The size of each step grows with the button
// distance and is randomized by temperature.
type ContourGenerator struct {
	rng        *rand.Rand
	hasPrev    bool
	prevButton int
	prevKey    int
}

// NewContourGenerator creates a generator. A seed of 0 picks a fixed default
// so runs are reproducible.
func NewContourGenerator(seed int64) *ContourGenerator {
	if seed == 0 {
		seed = 1
	}
	return &ContourGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Reset implements NoteGenerator.
func (g *ContourGenerator) Reset() {
	g.hasPrev = false
}

// Next implements NoteGenerator. An empty whitelist yields key 0.
func (g *ContourGenerator) Next(button int, whitelist []int, temperature float64) int {
	if len(whitelist) == 0 {
		return 0
	}
	keys := whitelist
	if !sort.IntsAreSorted(keys) {
		keys = append([]int(nil), whitelist...)
		sort.Ints(keys)
	}

	button = min(max(button, 0), generatorButtons-1)
	temperature = ClampTemperature(temperature)

	var pos int
	if !g.hasPrev || g.indexOf(keys, g.prevKey) < 0 {
		pos = g.bandPosition(button, len(keys), temperature)
	} else {
		pos = g.contourPosition(button, keys, temperature)
	}

	key := keys[pos]
	g.hasPrev = true
	g.prevButton = button
	g.prevKey = key
	return key
}

// bandPosition picks a position inside the button's eighth of the keyboard.
func (g *ContourGenerator) bandPosition(button, n int, temperature float64) int {
	band := float64(n) / generatorButtons
	center := (float64(button) + 0.5) * band
	jitter := (g.rng.Float64()*2 - 1) * band / 2 * temperature
	return clampIndex(int(math.Round(center+jitter)), n)
}

// contourPosition moves from the previous key in the direction of the button
// change.
func (g *ContourGenerator) contourPosition(button int, keys []int, temperature float64) int {
	prev := g.indexOf(keys, g.prevKey)
	delta := button - g.prevButton
	if delta == 0 {
		return prev
	}

	// Each button of distance moves about a whole step; temperature adds up
	// to four extra positions of stride.
	stride := abs(delta) * 2
	stride += g.rng.Intn(int(math.Round(temperature*4)) + 1)

	next := prev + sign(delta)*stride
	if next < 0 || next >= len(keys) {
		// Ran off the keyboard: fold back into range but keep moving the
		// right way when there is room to.
		next = clampIndex(next, len(keys))
		if next == prev && len(keys) > 1 {
			next = clampIndex(prev+sign(delta), len(keys))
		}
	}
	return next
}

func (g *ContourGenerator) indexOf(keys []int, key int) int {
	i := sort.SearchInts(keys, key)
	if i < len(keys) && keys[i] == key {
		return i
	}
	return -1
}

func clampIndex(i, n int) int {
	return min(max(i, 0), n-1)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
