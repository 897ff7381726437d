// Package calibration runs the interactive sampling procedure that builds a
// personalized gesture.Profile.
package calibration

import (
	"errors"
	"sync"
	"time"

	"github.com/ayusman/nritya/internal/detector"
	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/timeutil"
)

var (
	// ErrNotCollecting is returned when a frame is sampled outside an active
	// step.
	ErrNotCollecting = errors.New("calibration step is not collecting")
	// ErrUnknownStep is returned for a step outside the calibration sequence.
	ErrUnknownStep = errors.New("unknown calibration step")
	// ErrIncomplete is returned by Finish when no step reached its target.
	ErrIncomplete = errors.New("no calibration step completed")
	// ErrCancelled is returned by every operation after Cancel.
	ErrCancelled = errors.New("calibration cancelled")
	// ErrFinished is returned by every operation after Finish.
	ErrFinished = errors.New("calibration already finished")
)

// Steps is the fixed calibration sequence.
var Steps = []gesture.Type{
	gesture.ThumbUp,
	gesture.PinkyUp,
	gesture.OpenPalm,
	gesture.ClosedFist,
	gesture.Pointing,
}

// Status is the state of one calibration step.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusCollecting Status = "collecting"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Config configures a Collector.
type Config struct {
	// SamplesNeeded is the number of valid frames a step must fold in.
	SamplesNeeded int
	// Timeout is how long a step may collect before it fails.
	Timeout time.Duration
}

// DefaultConfig returns the default calibration settings.
func DefaultConfig() Config {
	return Config{
		SamplesNeeded: 10,
		Timeout:       10 * time.Second,
	}
}

// StepSnapshot describes one step for presentation.
type StepSnapshot struct {
	Gesture gesture.Type `json:"gesture"`
	Status  Status       `json:"status"`
	Samples int          `json:"samples"`
}

// Snapshot is a point-in-time view of the whole procedure.
type Snapshot struct {
	Step          int            `json:"step"`
	Gesture       gesture.Type   `json:"gesture"`
	Status        Status         `json:"status"`
	Samples       int            `json:"samples"`
	SamplesNeeded int            `json:"samples_needed"`
	Remaining     time.Duration  `json:"remaining_ns"`
	Steps         []StepSnapshot `json:"steps"`
	Done          bool           `json:"done"`
}

// Collector walks the user through the calibration steps and folds valid
// frames into running per-step averages.
type Collector struct {
	mu sync.Mutex

	config   Config
	clock    timeutil.Clock
	profile  *gesture.Profile
	statuses []Status
	step     int
	started  time.Time

	cancelled bool
	finished  bool
	onFinish  func(*gesture.Profile)
}

// NewCollector creates a Collector positioned on the first step. A nil clock
// uses wall time.
func NewCollector(config Config, clock timeutil.Clock) *Collector {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if config.SamplesNeeded <= 0 {
		config.SamplesNeeded = DefaultConfig().SamplesNeeded
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	c := &Collector{
		config:   config,
		clock:    clock,
		profile:  gesture.NewProfile(),
		statuses: make([]Status, len(Steps)),
	}
	for i := range c.statuses {
		c.statuses[i] = StatusIdle
	}
	return c
}

// OnFinish registers a callback invoked with the frozen profile once the
// procedure completes.
func (c *Collector) OnFinish(fn func(*gesture.Profile)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onFinish = fn
}

func (c *Collector) closedErr() error {
	switch {
	case c.cancelled:
		return ErrCancelled
	case c.finished:
		return ErrFinished
	}
	return nil
}

// Start begins collecting for the current step. Restarting a step that
// already succeeded or failed discards its samples first.
func (c *Collector) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closedErr(); err != nil {
		return err
	}
	switch c.statuses[c.step] {
	case StatusCollecting:
		return nil
	case StatusSuccess, StatusError:
		_ = c.profile.Reset(Steps[c.step])
	}
	c.statuses[c.step] = StatusCollecting
	c.started = c.clock.Now()
	return nil
}

// StepIndex returns the position of t in Steps, or -1.
func StepIndex(t gesture.Type) int {
	for i, s := range Steps {
		if s == t {
			return i
		}
	}
	return -1
}

// StartStep jumps to the step for t and begins collecting for it.
func (c *Collector) StartStep(t gesture.Type) error {
	i := StepIndex(t)
	if i < 0 {
		return ErrUnknownStep
	}
	if err := c.Goto(i); err != nil {
		return err
	}
	return c.Start()
}

// ResetStep clears the samples collected for t without moving off the
// current step.
func (c *Collector) ResetStep(t gesture.Type) error {
	i := StepIndex(t)
	if i < 0 {
		return ErrUnknownStep
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closedErr(); err != nil {
		return err
	}
	_ = c.profile.Reset(t)
	c.statuses[i] = StatusIdle
	return nil
}

// Sample folds the frame's primary hand into the current step. Frames
// without a valid hand are ignored. It returns the step's status after the
// frame, and ErrNotCollecting when the step is not collecting.
func (c *Collector) Sample(frame detector.Frame, now time.Time) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closedErr(); err != nil {
		return c.statuses[c.step], err
	}
	if c.statuses[c.step] != StatusCollecting {
		return c.statuses[c.step], ErrNotCollecting
	}
	if c.expired(now) {
		c.statuses[c.step] = StatusError
		return StatusError, nil
	}

	fv, ok := gesture.Extract(frame.Primary())
	if !ok {
		return StatusCollecting, nil
	}

	t := Steps[c.step]
	if err := c.profile.Fold(t, fv); err != nil {
		return c.statuses[c.step], err
	}
	if c.profile.Samples(t) >= c.config.SamplesNeeded {
		c.statuses[c.step] = StatusSuccess
	}
	return c.statuses[c.step], nil
}

// Tick is the timeout watchdog. It only flips a collecting step to error and
// never touches accumulated samples.
func (c *Collector) Tick(now time.Time) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closedErr() == nil && c.statuses[c.step] == StatusCollecting && c.expired(now) {
		c.statuses[c.step] = StatusError
	}
	return c.statuses[c.step]
}

func (c *Collector) expired(now time.Time) bool {
	return now.Sub(c.started) >= c.config.Timeout
}

// Reset clears the current step's samples and returns it to idle.
func (c *Collector) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closedErr(); err != nil {
		return err
	}
	_ = c.profile.Reset(Steps[c.step])
	c.statuses[c.step] = StatusIdle
	return nil
}

// Back moves to the previous step. It is a no-op on the first step.
func (c *Collector) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closedErr(); err != nil {
		return err
	}
	if c.step > 0 {
		c.leave()
		c.step--
	}
	return nil
}

// Next moves to the following step. On the final step it finishes the
// procedure and returns the frozen profile.
func (c *Collector) Next() (*gesture.Profile, error) {
	c.mu.Lock()
	if err := c.closedErr(); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	if c.step < len(Steps)-1 {
		c.leave()
		c.step++
		c.mu.Unlock()
		return nil, nil
	}
	c.mu.Unlock()
	return c.Finish()
}

// Goto jumps directly to step i.
func (c *Collector) Goto(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.closedErr(); err != nil {
		return err
	}
	if i < 0 || i >= len(Steps) {
		return ErrUnknownStep
	}
	if i != c.step {
		c.leave()
		c.step = i
	}
	return nil
}

// leave stops collection on the current step. Samples are kept so the user
// can come back and resume.
func (c *Collector) leave() {
	if c.statuses[c.step] == StatusCollecting {
		c.statuses[c.step] = StatusIdle
	}
}

// Finish freezes the profile from every successful step and hands it to the
// OnFinish callback. Steps that never reached their target are left out so
// the classifier keeps its defaults for them.
func (c *Collector) Finish() (*gesture.Profile, error) {
	c.mu.Lock()

	if err := c.closedErr(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	result := gesture.NewProfile()
	result.CreatedAt = c.clock.Now()
	for i, t := range Steps {
		if c.statuses[i] != StatusSuccess {
			continue
		}
		result.Entries[t] = c.profile.Entries[t]
	}
	if len(result.Entries) == 0 {
		c.mu.Unlock()
		return nil, ErrIncomplete
	}

	frozen := result.Freeze()
	c.finished = true
	fn := c.onFinish
	c.mu.Unlock()

	if fn != nil {
		fn(frozen)
	}
	return frozen, nil
}

// Cancel discards all progress. The collector is unusable afterwards.
func (c *Collector) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cancelled = true
	c.profile = gesture.NewProfile()
	for i := range c.statuses {
		c.statuses[i] = StatusIdle
	}
}

// Status returns the current step's status.
func (c *Collector) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statuses[c.step]
}

// Current returns the gesture of the active step.
func (c *Collector) Current() gesture.Type {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Steps[c.step]
}

// Mean returns the running mean of feature f for step t.
func (c *Collector) Mean(t gesture.Type, f gesture.Feature) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile.Mean(t, f)
}

// Snapshot returns a view of the procedure at time now.
func (c *Collector) Snapshot(now time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := Steps[c.step]
	s := Snapshot{
		Step:          c.step,
		Gesture:       t,
		Status:        c.statuses[c.step],
		Samples:       c.profile.Samples(t),
		SamplesNeeded: c.config.SamplesNeeded,
		Steps:         make([]StepSnapshot, len(Steps)),
		Done:          c.cancelled || c.finished,
	}
	if s.Status == StatusCollecting {
		if left := c.config.Timeout - now.Sub(c.started); left > 0 {
			s.Remaining = left
		}
	}
	for i, st := range Steps {
		s.Steps[i] = StepSnapshot{
			Gesture: st,
			Status:  c.statuses[i],
			Samples: c.profile.Samples(st),
		}
	}
	return s
}
