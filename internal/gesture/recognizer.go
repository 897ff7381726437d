package gesture

import (
	"time"

	"github.com/ayusman/nritya/internal/detector"
)

// Recognizer chains feature extraction, classification and debouncing into
// a single per-frame call.
type Recognizer struct {
	classifier *Classifier
	debouncer  *Debouncer
	keys       KeyMap
}

// NewRecognizer wires a classifier and debouncer together.
func NewRecognizer(classifier *Classifier, debouncer *Debouncer) *Recognizer {
	return &Recognizer{
		classifier: classifier,
		debouncer:  debouncer,
		keys:       DefaultKeyMap(),
	}
}

// Classifier returns the underlying classifier.
func (r *Recognizer) Classifier() *Classifier {
	return r.classifier
}

// Debouncer returns the underlying debouncer.
func (r *Recognizer) Debouncer() *Debouncer {
	return r.debouncer
}

// Candidate classifies the frame's primary hand without touching the
// debouncer. A frame with no valid hand yields NONE.
func (r *Recognizer) Candidate(frame detector.Frame) Result {
	fv, ok := Extract(frame.Primary())
	if !ok {
		return Result{Type: None}
	}
	return r.classifier.Classify(fv)
}

// Process runs one frame through the pipeline and returns the emitted event,
// or nil when nothing passes the debouncer.
func (r *Recognizer) Process(frame detector.Frame, now time.Time) *Event {
	return r.debouncer.SubmitAt(r.Candidate(frame), SourceLandmarks, now)
}

// Motion submits a swipe detected by the motion tracker.
func (r *Recognizer) Motion(t Type, now time.Time) *Event {
	return r.debouncer.SubmitAt(Result{Type: t, Confidence: ConfidenceLandmark}, SourceMotion, now)
}

// Key submits a simulated key press. Unbound keys emit nothing.
func (r *Recognizer) Key(key string, now time.Time) *Event {
	candidate, ok := r.keys.Resolve(key)
	if !ok {
		return nil
	}
	return r.debouncer.SubmitAt(candidate, SourceKeyboard, now)
}
