// Package detector provides hand detection interfaces and landmark types
// consumed by the gesture recognition pipeline.
package detector

import (
	"errors"
	"fmt"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the tracking service.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// ErrMalformedHand is returned when a landmark list does not contain exactly
// NumLandmarks points.
var ErrMalformedHand = errors.New("malformed hand")

// Point3D is a single landmark. X and Y are normalized to [0,1] relative to
// the frame; Z is unitless depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is a fully present hand: all 21 landmarks.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Frame holds the hands observed at one sampling instant.
type Frame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp time.Time       `json:"timestamp"`
}

// ParseHand validates a raw landmark list and copies it into a HandLandmarks.
// Partial hands are rejected with ErrMalformedHand.
func ParseHand(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedHand, len(points), NumLandmarks)
	}

	hand := HandLandmarks{
		Handedness: handedness,
		Score:      score,
	}
	copy(hand.Points[:], points)
	return hand, nil
}

// Primary returns the hand with the highest detection score, or nil when the
// frame holds no hands.
func (f *Frame) Primary() *HandLandmarks {
	if f == nil || len(f.Hands) == 0 {
		return nil
	}

	best := &f.Hands[0]
	for i := 1; i < len(f.Hands); i++ {
		if f.Hands[i].Score > best.Score {
			best = &f.Hands[i]
		}
	}
	return best
}
