package app

import (
	"time"

	"github.com/ayusman/nritya/internal/calibration"
	"github.com/ayusman/nritya/internal/gesture"
)

// BeginCalibration starts a new calibration session, replacing any running
// one. Runtime recognition is suspended until the session ends.
func (a *App) BeginCalibration() calibration.Snapshot {
	c := calibration.NewCollector(a.config.Calibration, a.clock)
	c.OnFinish(a.saveProfile)

	a.mu.Lock()
	if a.collector != nil {
		a.collector.Cancel()
	}
	a.collector = c
	a.mu.Unlock()

	Logf("Calibration started")
	return c.Snapshot(a.clock.Now())
}

// Calibrating reports whether a calibration session is running.
func (a *App) Calibrating() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.collector != nil
}

// withCollector runs fn against the running session and returns its
// snapshot afterwards.
func (a *App) withCollector(fn func(c *calibration.Collector) error) (calibration.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.collector == nil {
		return calibration.Snapshot{}, ErrNoCalibration
	}
	c := a.collector
	if err := fn(c); err != nil {
		return c.Snapshot(a.clock.Now()), err
	}
	return c.Snapshot(a.clock.Now()), nil
}

// CalibrationStatus returns the running session's snapshot.
func (a *App) CalibrationStatus() (calibration.Snapshot, error) {
	return a.withCollector(func(*calibration.Collector) error { return nil })
}

// CalibrationStart begins collecting for the current step.
func (a *App) CalibrationStart() (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error { return c.Start() })
}

// CalibrationStartStep jumps to the step for t and begins collecting.
func (a *App) CalibrationStartStep(t gesture.Type) (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error { return c.StartStep(t) })
}

// CalibrationReset clears the current step.
func (a *App) CalibrationReset() (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error { return c.Reset() })
}

// CalibrationBack moves to the previous step.
func (a *App) CalibrationBack() (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error { return c.Back() })
}

// CalibrationGoto jumps to step i.
func (a *App) CalibrationGoto(i int) (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error { return c.Goto(i) })
}

// CalibrationNext moves to the following step. On the final step it
// finishes the session and installs the profile.
func (a *App) CalibrationNext() (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error {
		p, err := c.Next()
		if err != nil {
			return err
		}
		if p != nil {
			a.install(p)
		}
		return nil
	})
}

// CalibrationFinish finishes the session early with the completed steps.
func (a *App) CalibrationFinish() (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error {
		p, err := c.Finish()
		if err != nil {
			return err
		}
		a.install(p)
		return nil
	})
}

// CalibrationCancel discards the session. The classifier keeps its current
// profile.
func (a *App) CalibrationCancel() (calibration.Snapshot, error) {
	return a.withCollector(func(c *calibration.Collector) error {
		c.Cancel()
		a.collector = nil
		Logf("Calibration cancelled")
		return nil
	})
}

// TickCalibration runs the session's timeout watchdog.
func (a *App) TickCalibration(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.collector != nil {
		a.collector.Tick(now)
	}
}

// install hands a finished profile to the classifier and ends the session.
// The debounce state is kept so spacing holds across the switch. Callers
// hold a.mu.
func (a *App) install(p *gesture.Profile) {
	a.recognizer.Classifier().SetProfile(p)
	a.collector = nil
	Logf("Calibration finished with %d gestures", len(p.Entries))
}

// saveProfile persists a finished profile and marks it active. It runs from
// the collector's finish callback and must not take a.mu.
func (a *App) saveProfile(p *gesture.Profile) {
	if a.config.Store == nil {
		return
	}
	profiles := a.config.Store.Profiles()
	if err := profiles.Save(p); err != nil {
		Logf("Failed to save calibration profile: %v", err)
		return
	}
	if err := profiles.SetActive(p.ID); err != nil {
		Logf("Failed to activate calibration profile: %v", err)
	}
}
