package gesture

import "strings"

// KeyMap maps key names to gestures for the camera-less simulation path.
// Keys are matched case-insensitively.
type KeyMap map[string]Type

// DefaultKeyMap returns the built-in simulation bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"arrowleft":  SwipeLeft,
		"left":       SwipeLeft,
		"a":          SwipeLeft,
		"arrowright": SwipeRight,
		"right":      SwipeRight,
		"d":          SwipeRight,
		"o":          OpenPalm,
		"space":      OpenPalm,
		"f":          ClosedFist,
		"p":          Pointing,
		"t":          ThumbUp,
	}
}

// Resolve returns the manual candidate bound to key.
func (k KeyMap) Resolve(key string) (Result, bool) {
	t, ok := k[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Result{Type: None}, false
	}
	return Result{Type: t, Confidence: ConfidenceManual}, true
}
