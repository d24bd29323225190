// Package gesture turns per-frame hand landmarks into debounced button events.
//
// A frame is classified as a left or right hand and as having an open or
// closed thumb. Each of the four fingers is then tested for a curl, mapped to
// one of four base slots, and edge-detected against the slot's last state.
// Pressing a finger while the thumb is open also presses the chord slot
// (base + ChordOffset).
package gesture

import "github.com/ayusman/gesturegenie/internal/detector"

// Hand is the classified handedness of a frame.
type Hand int

const (
	// LeftHand is a hand whose pinky side lies right of the thumb MCP.
	LeftHand Hand = iota
	// RightHand is a hand whose pinky side lies left of the thumb MCP.
	RightHand
)

// String returns "left" or "right".
func (h Hand) String() string {
	if h == RightHand {
		return "right"
	}
	return "left"
}

// MarshalText encodes the hand as its name.
func (h Hand) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// ClassifyHand reports which hand the frame shows. The capture pipeline
// mirrors the camera, so a right hand has its pinky DIP at a lower X than its
// thumb MCP. There is no hysteresis: a hand turned edge-on can flip between
// frames.
func ClassifyHand(frame *detector.Frame) Hand {
	if frame[detector.PinkyDIP].X < frame[detector.ThumbMCP].X {
		return RightHand
	}
	return LeftHand
}

// ThumbOpen reports whether the thumb tip has swung away from the palm in the
// direction implied by the hand.
func ThumbOpen(frame *detector.Frame, hand Hand) bool {
	if frame[detector.ThumbMCP].X > frame[detector.ThumbTip].X {
		return hand == LeftHand
	}
	return hand == RightHand
}

// Triggered reports whether a finger counts as pressed: its tip is level with
// or below its PIP joint. This is a plain Y comparison and does not hold up
// when the hand is rotated.
func Triggered(joint, tip detector.Point3D) bool {
	return tip.Y >= joint.Y
}

// Finger identifies one of the four button fingers.
type Finger int

const (
	Index Finger = iota
	Middle
	Ring
	Pinky
)

// NumFingers is the number of button fingers and base slots.
const NumFingers = 4

var fingerNames = [NumFingers]string{"index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// fingerJoints holds the PIP joint and tip landmark of each finger.
var fingerJoints = [NumFingers][2]int{
	Index:  {detector.IndexPIP, detector.IndexTip},
	Middle: {detector.MiddlePIP, detector.MiddleTip},
	Ring:   {detector.RingPIP, detector.RingTip},
	Pinky:  {detector.PinkyPIP, detector.PinkyTip},
}

// Landmarks returns the PIP joint and tip landmark indices of the finger.
func (f Finger) Landmarks() (joint, tip int) {
	j := fingerJoints[f]
	return j[0], j[1]
}

// Slot returns the base slot the finger drives for the given hand. A right
// index finger drives slot 0; a left hand reverses the order so slot' = 3 - slot.
func (f Finger) Slot(hand Hand) int {
	slot := int(f)
	if hand == LeftHand {
		slot = NumFingers - 1 - slot
	}
	return slot
}
