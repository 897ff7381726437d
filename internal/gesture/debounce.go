package gesture

import (
	"time"

	"github.com/ayusman/nritya/internal/timeutil"
)

// Debounce defaults.
const (
	DefaultDebounce            = 800 * time.Millisecond
	DefaultSameGestureFactor   = 1.5
	DefaultConfidenceThreshold = 0.7
	DefaultDisplayWindow       = 1500 * time.Millisecond
)

// DebounceConfig configures the temporal debouncer.
type DebounceConfig struct {
	// Debounce is the minimum spacing between any two emitted events.
	Debounce time.Duration
	// SameGestureFactor extends Debounce when the candidate repeats the last
	// emitted type.
	SameGestureFactor float64
	// ConfidenceThreshold drops candidates scored below it.
	ConfidenceThreshold float64
	// DisplayWindow is how long an emitted event stays "current" for
	// presentation. It does not affect debouncing.
	DisplayWindow time.Duration
}

// DefaultDebounceConfig returns the default debouncer settings.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Debounce:            DefaultDebounce,
		SameGestureFactor:   DefaultSameGestureFactor,
		ConfidenceThreshold: DefaultConfidenceThreshold,
		DisplayWindow:       DefaultDisplayWindow,
	}
}

// DebounceState is the memory of the last emission. The zero value means
// nothing has been emitted yet.
type DebounceState struct {
	LastTime time.Time
	LastType Type
}

// Evaluate runs one candidate through the debounce rules and returns the new
// state plus the emitted event, or nil when the candidate is dropped.
//
// A candidate is dropped when it is NONE, scores below the confidence
// threshold, arrives within Debounce of the last emission, or repeats the
// last emitted type within Debounce*SameGestureFactor.
func Evaluate(state DebounceState, candidate Result, now time.Time, config DebounceConfig) (DebounceState, *Event) {
	if candidate.Type == None || candidate.Type == "" || candidate.Confidence < config.ConfidenceThreshold {
		return state, nil
	}

	if !state.LastTime.IsZero() {
		elapsed := now.Sub(state.LastTime)
		if elapsed < config.Debounce {
			return state, nil
		}
		extended := time.Duration(float64(config.Debounce) * config.SameGestureFactor)
		if candidate.Type == state.LastType && elapsed < extended {
			return state, nil
		}
	}

	event := &Event{
		Type:       candidate.Type,
		Confidence: candidate.Confidence,
		Timestamp:  now,
	}
	return DebounceState{LastTime: now, LastType: candidate.Type}, event
}

// Debouncer owns a DebounceState and gates candidates against it.
type Debouncer struct {
	config DebounceConfig
	clock  timeutil.Clock
	state  DebounceState
	last   *Event
}

// NewDebouncer creates a Debouncer. A nil clock uses wall time.
func NewDebouncer(config DebounceConfig, clock timeutil.Clock) *Debouncer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Debouncer{config: config, clock: clock}
}

// Submit evaluates a candidate at the clock's current time.
func (d *Debouncer) Submit(candidate Result, source Source) *Event {
	return d.SubmitAt(candidate, source, d.clock.Now())
}

// SubmitAt evaluates a candidate at the given time.
func (d *Debouncer) SubmitAt(candidate Result, source Source, now time.Time) *Event {
	state, event := Evaluate(d.state, candidate, now, d.config)
	if event == nil {
		return nil
	}
	event.Source = source
	d.state = state
	d.last = event
	return event
}

// State returns a copy of the current debounce state.
func (d *Debouncer) State() DebounceState {
	return d.state
}

// Current returns the last emitted event while it is inside the display
// window.
func (d *Debouncer) Current(now time.Time) (Event, bool) {
	if d.last == nil || now.Sub(d.last.Timestamp) >= d.config.DisplayWindow {
		return Event{}, false
	}
	return *d.last, true
}

// Active reports whether an emitted event is inside the display window.
func (d *Debouncer) Active(now time.Time) bool {
	_, ok := d.Current(now)
	return ok
}
