package app

import (
	"errors"
	"io"

	"github.com/ayusman/gesturegenie/internal/detector"
	"github.com/ayusman/gesturegenie/internal/gesture"
)

// ReplayStats summarizes a replayed recording.
type ReplayStats struct {
	Frames  int `json:"frames"`
	NoHand  int `json:"no_hand"`
	Invalid int `json:"invalid"`
	Events  int `json:"events"`
}

// FrameFunc is called for every frame of a replay. res is zero and err is set
// for a frame the engine rejected.
type FrameFunc func(index int, res gesture.Result, err error)

// Replay feeds a landmark recording through a fresh engine driving sink.
// Mirror flips each hand across width first. Held buttons are released at
// the end of the recording.
func Replay(r io.Reader, sink gesture.ButtonSink, mirror bool, width float64, onFrame FrameFunc) (ReplayStats, error) {
	var stats ReplayStats

	d, err := detector.NewReplayDetector(r, false)
	if err != nil {
		return stats, err
	}
	engine := gesture.NewEngine(sink)

	for i := 0; ; i++ {
		hands, err := d.Detect(nil)
		if errors.Is(err, detector.ErrEndOfReplay) {
			break
		}
		stats.Frames++

		if err != nil {
			stats.Invalid++
			if onFrame != nil {
				onFrame(i, gesture.Result{}, err)
			}
			continue
		}
		if len(hands) == 0 {
			stats.NoHand++
			continue
		}

		hand := hands[0]
		if mirror {
			hand = hand.Mirror(width)
		}
		res, err := engine.ProcessFrame(&hand.Points)
		if err != nil {
			stats.Invalid++
		}
		stats.Events += len(res.Events)
		if onFrame != nil {
			onFrame(i, res, err)
		}
	}

	stats.Events += len(engine.ReleaseAll())
	return stats, nil
}
