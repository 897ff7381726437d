// Package gesture turns hand-landmark frames into debounced, confidence-scored
// gesture events: feature extraction, rule-based classification and temporal
// debouncing.
package gesture

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies a gesture.
type Type string

const (
	SwipeLeft  Type = "SWIPE_LEFT"
	SwipeRight Type = "SWIPE_RIGHT"
	OpenPalm   Type = "OPEN_PALM"
	ClosedFist Type = "CLOSED_FIST"
	Pointing   Type = "POINTING"
	ThumbUp    Type = "THUMB_UP"
	None       Type = "NONE"

	// PinkyUp is only collected during calibration. The classifier never
	// produces it.
	PinkyUp Type = "PINKY_UP"
)

// Types lists the runtime gesture vocabulary.
var Types = []Type{SwipeLeft, SwipeRight, OpenPalm, ClosedFist, Pointing, ThumbUp, None}

// ParseType converts a string such as "thumb_up" or "THUMB_UP" into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	if t == PinkyUp {
		return t, nil
	}
	for _, known := range Types {
		if t == known {
			return t, nil
		}
	}
	return None, fmt.Errorf("unknown gesture type %q", s)
}

// Confidence levels produced by the heuristic path.
const (
	// ConfidenceManual is assigned to keyboard-simulated triggers.
	ConfidenceManual = 1.0
	// ConfidenceLandmark is assigned to a landmark rule match.
	ConfidenceLandmark = 0.9
)

// Source records which path produced an event.
type Source string

const (
	SourceLandmarks Source = "landmarks"
	SourceMotion    Source = "motion"
	SourceKeyboard  Source = "keyboard"
)

// Result is the classifier's verdict for one feature vector.
type Result struct {
	Type       Type    `json:"type"`
	Confidence float64 `json:"confidence"`
}

// Event is a gesture accepted by the debouncer.
type Event struct {
	Type       Type      `json:"type"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Source     Source    `json:"source,omitempty"`
}

// Handler receives accepted events. It is called from the frame path and
// must return quickly.
type Handler func(Event)
