// Package app wires the camera, detector and recognition core into the
// running gesture pipeline.
package app

import (
	"errors"
	"log"
	"sync"

	"github.com/ayusman/nritya/internal/calibration"
	"github.com/ayusman/nritya/internal/capture"
	"github.com/ayusman/nritya/internal/detector"
	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/store"
	"github.com/ayusman/nritya/internal/timeutil"
)

// Logf is the application log hook. Tests may replace it.
var Logf = log.Printf

// ErrNoCalibration is returned by calibration controls when no session is
// running.
var ErrNoCalibration = errors.New("no calibration in progress")

// Config holds configuration options for the application.
type Config struct {
	Store    *store.Store
	Camera   capture.Camera
	Detector detector.Detector
	Clock    timeutil.Clock

	Classifier  gesture.ClassifierConfig
	Debounce    gesture.DebounceConfig
	Calibration calibration.Config
	Swipe       capture.SwipeConfig

	// Landmarks runs the detector on camera frames.
	Landmarks bool
	// Motion runs the brightness swipe tracker on camera frames.
	Motion bool
	// FPS is the pipeline frame rate.
	FPS int
}

// DefaultConfig returns the default application settings. Store, Camera and
// Detector are left for the caller.
func DefaultConfig() Config {
	return Config{
		Classifier:  gesture.DefaultClassifierConfig(),
		Debounce:    gesture.DefaultDebounceConfig(),
		Calibration: calibration.DefaultConfig(),
		Swipe:       capture.DefaultSwipeConfig(),
		Landmarks:   true,
		Motion:      true,
		FPS:         capture.DefaultFPS,
	}
}

// App is the main application that turns frames into gesture events and fans
// them out to handlers.
type App struct {
	config Config
	clock  timeutil.Clock

	// mu serializes access to the recognition core so it only ever sees one
	// writer.
	mu         sync.Mutex
	recognizer *gesture.Recognizer
	swipe      *capture.SwipeTracker
	collector  *calibration.Collector
	enabled    bool

	handlersMu sync.RWMutex
	handlers   []gesture.Handler

	runMu  sync.Mutex
	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	defaults := DefaultConfig()
	if config.Classifier == (gesture.ClassifierConfig{}) {
		config.Classifier = defaults.Classifier
	}
	if config.Debounce == (gesture.DebounceConfig{}) {
		config.Debounce = defaults.Debounce
	}
	if config.FPS <= 0 {
		config.FPS = defaults.FPS
	}
	if config.Clock == nil {
		config.Clock = timeutil.RealClock{}
	}
	if config.Detector == nil {
		config.Detector = detector.NewMockDetector()
	}

	a := &App{
		config: config,
		clock:  config.Clock,
		recognizer: gesture.NewRecognizer(
			gesture.NewClassifier(config.Classifier),
			gesture.NewDebouncer(config.Debounce, config.Clock),
		),
		swipe:   capture.NewSwipeTracker(config.Swipe),
		enabled: true,
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingEnabled, true)
	}
	return a
}

// OnEvent registers a handler for every emitted event.
func (a *App) OnEvent(h gesture.Handler) {
	a.handlersMu.Lock()
	defer a.handlersMu.Unlock()
	a.handlers = append(a.handlers, h)
}

// SetEnabled enables or disables gesture detection. The flag is persisted
// when a store is configured.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingEnabled, enabled); err != nil {
			Logf("Failed to persist enabled flag: %v", err)
		}
	}
}

// IsEnabled returns whether gesture detection is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// LoadProfile installs the active calibration profile from the store. A
// missing profile keeps the default thresholds.
func (a *App) LoadProfile() error {
	if a.config.Store == nil {
		return nil
	}

	p, err := a.config.Store.Profiles().Active()
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	a.SetProfile(p)
	Logf("Loaded calibration profile %q", p.Name)
	return nil
}

// SetProfile installs p in the classifier. Nil restores the defaults.
func (a *App) SetProfile(p *gesture.Profile) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recognizer.Classifier().SetProfile(p)
}

// Profile returns the classifier's active profile, if any.
func (a *App) Profile() *gesture.Profile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recognizer.Classifier().Profile()
}

// Current returns the last event while it is inside the display window.
func (a *App) Current() (gesture.Event, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recognizer.Debouncer().Current(a.clock.Now())
}

// HandleFrame feeds one landmark frame through the pipeline. While a
// calibration session is running the frame goes to the collector instead
// and nothing is emitted.
func (a *App) HandleFrame(frame detector.Frame) *gesture.Event {
	now := a.clock.Now()

	a.mu.Lock()
	if a.collector != nil {
		// Frames between steps are expected; ErrNotCollecting is not a fault.
		a.collector.Sample(frame, now)
		a.mu.Unlock()
		return nil
	}
	if !a.enabled {
		a.mu.Unlock()
		return nil
	}
	ev := a.recognizer.Process(frame, now)
	a.mu.Unlock()

	a.emit(ev)
	return ev
}

// HandlePixels feeds one RGBA frame to the motion swipe tracker.
func (a *App) HandlePixels(p capture.Pixels) *gesture.Event {
	now := a.clock.Now()

	a.mu.Lock()
	if !a.enabled || a.collector != nil {
		a.mu.Unlock()
		return nil
	}
	t := a.swipe.Process(p)
	if t == gesture.None {
		a.mu.Unlock()
		return nil
	}
	ev := a.recognizer.Motion(t, now)
	a.mu.Unlock()

	a.emit(ev)
	return ev
}

// HandleKey submits a simulated key press. Keys are ignored while
// calibrating, like camera frames.
func (a *App) HandleKey(key string) *gesture.Event {
	now := a.clock.Now()

	a.mu.Lock()
	if !a.enabled || a.collector != nil {
		a.mu.Unlock()
		return nil
	}
	ev := a.recognizer.Key(key, now)
	a.mu.Unlock()

	a.emit(ev)
	return ev
}

// emit records ev and calls every handler outside the core lock.
func (a *App) emit(ev *gesture.Event) {
	if ev == nil {
		return
	}

	if a.config.Store != nil {
		if err := a.config.Store.Events().Append(*ev); err != nil {
			Logf("Failed to record event %s: %v", ev.Type, err)
		}
	}

	a.handlersMu.RLock()
	handlers := append([]gesture.Handler(nil), a.handlers...)
	a.handlersMu.RUnlock()

	for _, h := range handlers {
		h(*ev)
	}
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.config.Camera
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	return a.config.Detector
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}
