package app

import (
	"time"

	"github.com/ayusman/nritya/internal/capture"
)

// Start opens the camera and begins the detection loop.
func (a *App) Start() error {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}
	if a.config.Camera == nil {
		return capture.ErrCameraNotOpen
	}

	if err := a.config.Camera.Open(); err != nil {
		return err
	}
	a.config.Camera.SetFPS(a.config.FPS)

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	Logf("Detection pipeline started at %d fps", a.config.FPS)
	return nil
}

// Stop halts the detection loop and releases the camera and detector.
func (a *App) Stop() {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	if a.stopCh == nil {
		return
	}
	close(a.stopCh)
	<-a.doneCh
	a.stopCh = nil
	a.doneCh = nil

	if err := a.config.Camera.Close(); err != nil {
		Logf("Error closing camera: %v", err)
	}
	if err := a.config.Detector.Close(); err != nil {
		Logf("Error closing detector: %v", err)
	}

	Logf("Detection pipeline stopped")
}

// runPipeline reads frames on a ticker and runs each one through the
// landmark path and the motion path. It is the only frame submitter.
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.config.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			a.TickCalibration(a.clock.Now())
			a.step()
		}
	}
}

// step processes a single camera frame.
func (a *App) step() {
	// Disabled pipelines stop submitting frames.
	if !a.IsEnabled() && !a.Calibrating() {
		return
	}

	frame, err := a.config.Camera.ReadFrame()
	if err != nil {
		Logf("Error reading frame: %v", err)
		return
	}
	defer frame.Close()

	if a.config.Landmarks {
		landmarks, err := a.config.Detector.Detect(frame)
		if err != nil {
			Logf("Error detecting hands: %v", err)
		} else {
			a.HandleFrame(landmarks)
		}
	}

	if a.config.Motion {
		pixels, err := capture.PixelsFromMat(frame)
		if err != nil {
			Logf("Error converting frame: %v", err)
			return
		}
		a.HandlePixels(pixels)
	}
}
