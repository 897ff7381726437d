// Package config loads application settings with Viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ayusman/nritya/internal/calibration"
	"github.com/ayusman/nritya/internal/capture"
	"github.com/ayusman/nritya/internal/detector"
	"github.com/ayusman/nritya/internal/gesture"
)

const (
	AppName       = "nritya"
	ConfigType    = "yaml"
	DefaultConfig = `# Nritya configuration

# Camera
camera_device: 0            # OpenCV device index
camera_width: 640
camera_height: 480
camera_fps: 30

# Hand tracking
landmarks_enabled: true     # run the MediaPipe landmark path
max_hands: 1
min_detection_confidence: 0.5
mediapipe_script: ""        # empty searches the usual locations

# Classifier
thumb_up_threshold: 0.2     # thumb extension a thumbs up must exceed
pointing_threshold: 0.2     # index extension a point must exceed
open_palm_threshold: 0.1    # extension every digit must exceed
closed_fist_threshold: 0.0  # curl every finger must exceed
not_extended_threshold: 0.0 # extension below which a finger is folded
calibration_tolerance: 0.05 # subtracted from calibrated means

# Debouncer
debounce: 800ms
same_gesture_factor: 1.5    # debounce multiplier for a repeated gesture
confidence_threshold: 0.7
display_window: 1500ms

# Calibration
calibration_samples: 10
calibration_timeout: 10s

# Motion swipe tracker
swipe_enabled: true
swipe_stride: 10            # sampling step in pixels
swipe_brightness: 200       # mean channel value of a bright pixel
swipe_min_bright: 50        # bright samples needed to track
swipe_threshold: 50         # centroid shift in pixels
swipe_cooldown: 15          # frames to hold after a swipe

# Service
addr: ":8080"
data_dir: ""                # empty uses ~/.nritya
plugin_dir: ""              # empty uses <data_dir>/plugins
plugin_timeout: 5s
tray: true
debug: false
`
)

// Settings holds all application configuration
type Settings struct {
	// Camera
	CameraDevice int `mapstructure:"camera_device"`
	CameraWidth  int `mapstructure:"camera_width"`
	CameraHeight int `mapstructure:"camera_height"`
	CameraFPS    int `mapstructure:"camera_fps"`

	// Hand tracking
	LandmarksEnabled       bool    `mapstructure:"landmarks_enabled"`
	MaxHands               int     `mapstructure:"max_hands"`
	MinDetectionConfidence float64 `mapstructure:"min_detection_confidence"`
	MediaPipeScript        string  `mapstructure:"mediapipe_script"`

	// Classifier
	ThumbUpThreshold     float64 `mapstructure:"thumb_up_threshold"`
	PointingThreshold    float64 `mapstructure:"pointing_threshold"`
	OpenPalmThreshold    float64 `mapstructure:"open_palm_threshold"`
	ClosedFistThreshold  float64 `mapstructure:"closed_fist_threshold"`
	NotExtendedThreshold float64 `mapstructure:"not_extended_threshold"`
	CalibrationTolerance float64 `mapstructure:"calibration_tolerance"`

	// Debouncer
	Debounce            time.Duration `mapstructure:"debounce"`
	SameGestureFactor   float64       `mapstructure:"same_gesture_factor"`
	ConfidenceThreshold float64       `mapstructure:"confidence_threshold"`
	DisplayWindow       time.Duration `mapstructure:"display_window"`

	// Calibration
	CalibrationSamples int           `mapstructure:"calibration_samples"`
	CalibrationTimeout time.Duration `mapstructure:"calibration_timeout"`

	// Motion swipe tracker
	SwipeEnabled    bool    `mapstructure:"swipe_enabled"`
	SwipeStride     int     `mapstructure:"swipe_stride"`
	SwipeBrightness int     `mapstructure:"swipe_brightness"`
	SwipeMinBright  int     `mapstructure:"swipe_min_bright"`
	SwipeThreshold  float64 `mapstructure:"swipe_threshold"`
	SwipeCooldown   int     `mapstructure:"swipe_cooldown"`

	// Service
	Addr          string        `mapstructure:"addr"`
	DataDir       string        `mapstructure:"data_dir"`
	PluginDir     string        `mapstructure:"plugin_dir"`
	PluginTimeout time.Duration `mapstructure:"plugin_timeout"`
	Tray          bool          `mapstructure:"tray"`
	Debug         bool          `mapstructure:"debug"`
}

// SetDefaults registers every default with Viper.
func SetDefaults() {
	viper.SetDefault("camera_device", 0)
	viper.SetDefault("camera_width", capture.DefaultWidth)
	viper.SetDefault("camera_height", capture.DefaultHeight)
	viper.SetDefault("camera_fps", capture.DefaultFPS)

	viper.SetDefault("landmarks_enabled", true)
	viper.SetDefault("max_hands", 1)
	viper.SetDefault("min_detection_confidence", 0.5)
	viper.SetDefault("mediapipe_script", "")

	th := gesture.DefaultThresholds()
	viper.SetDefault("thumb_up_threshold", th.ThumbUp)
	viper.SetDefault("pointing_threshold", th.Pointing)
	viper.SetDefault("open_palm_threshold", th.OpenPalm)
	viper.SetDefault("closed_fist_threshold", th.ClosedFist)
	viper.SetDefault("not_extended_threshold", th.NotExtended)
	viper.SetDefault("calibration_tolerance", gesture.DefaultTolerance)

	viper.SetDefault("debounce", gesture.DefaultDebounce)
	viper.SetDefault("same_gesture_factor", gesture.DefaultSameGestureFactor)
	viper.SetDefault("confidence_threshold", gesture.DefaultConfidenceThreshold)
	viper.SetDefault("display_window", gesture.DefaultDisplayWindow)

	cal := calibration.DefaultConfig()
	viper.SetDefault("calibration_samples", cal.SamplesNeeded)
	viper.SetDefault("calibration_timeout", cal.Timeout)

	sw := capture.DefaultSwipeConfig()
	viper.SetDefault("swipe_enabled", true)
	viper.SetDefault("swipe_stride", sw.Stride)
	viper.SetDefault("swipe_brightness", sw.Brightness)
	viper.SetDefault("swipe_min_bright", sw.MinBright)
	viper.SetDefault("swipe_threshold", sw.Threshold)
	viper.SetDefault("swipe_cooldown", sw.Cooldown)

	viper.SetDefault("addr", ":8080")
	viper.SetDefault("data_dir", "")
	viper.SetDefault("plugin_dir", "")
	viper.SetDefault("plugin_timeout", 5*time.Second)
	viper.SetDefault("tray", true)
	viper.SetDefault("debug", false)
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/nritya/
func Init() error {
	SetDefaults()

	viper.SetConfigType(ConfigType)
	viper.SetEnvPrefix(AppName)
	viper.AutomaticEnv()

	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	viper.SetConfigName(".nritya")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
		if err = ensureConfigExists(filepath.Join(configDir, AppName)); err != nil {
			return err
		}
		if err = viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

// Validate checks that all settings are within acceptable ranges
func (s *Settings) Validate() error {
	var errs []error

	if s.CameraDevice < 0 {
		errs = append(errs, fmt.Errorf("camera_device must be >= 0, got %d", s.CameraDevice))
	}
	if s.CameraFPS < 1 || s.CameraFPS > 120 {
		errs = append(errs, fmt.Errorf("camera_fps must be between 1 and 120, got %d", s.CameraFPS))
	}
	if s.CameraWidth <= 0 || s.CameraHeight <= 0 {
		errs = append(errs, fmt.Errorf("camera resolution must be positive, got %dx%d", s.CameraWidth, s.CameraHeight))
	}

	if s.MaxHands < 1 || s.MaxHands > 4 {
		errs = append(errs, fmt.Errorf("max_hands must be between 1 and 4, got %d", s.MaxHands))
	}
	if s.MinDetectionConfidence < 0 || s.MinDetectionConfidence > 1 {
		errs = append(errs, fmt.Errorf("min_detection_confidence must be between 0.0 and 1.0, got %v", s.MinDetectionConfidence))
	}

	if s.CalibrationTolerance < 0 || s.CalibrationTolerance > 0.5 {
		errs = append(errs, fmt.Errorf("calibration_tolerance must be between 0.0 and 0.5, got %v", s.CalibrationTolerance))
	}

	if s.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("debounce must be positive, got %v", s.Debounce))
	}
	if s.SameGestureFactor < 1 {
		errs = append(errs, fmt.Errorf("same_gesture_factor must be >= 1.0, got %v", s.SameGestureFactor))
	}
	if s.ConfidenceThreshold < 0 || s.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("confidence_threshold must be between 0.0 and 1.0, got %v", s.ConfidenceThreshold))
	}
	if s.DisplayWindow < 0 {
		errs = append(errs, fmt.Errorf("display_window must be >= 0, got %v", s.DisplayWindow))
	}

	if s.CalibrationSamples < 1 || s.CalibrationSamples > 1000 {
		errs = append(errs, fmt.Errorf("calibration_samples must be between 1 and 1000, got %d", s.CalibrationSamples))
	}
	if s.CalibrationTimeout < time.Second {
		errs = append(errs, fmt.Errorf("calibration_timeout must be at least 1s, got %v", s.CalibrationTimeout))
	}

	if s.SwipeStride < 1 {
		errs = append(errs, fmt.Errorf("swipe_stride must be >= 1, got %d", s.SwipeStride))
	}
	if s.SwipeBrightness < 0 || s.SwipeBrightness > 255 {
		errs = append(errs, fmt.Errorf("swipe_brightness must be between 0 and 255, got %d", s.SwipeBrightness))
	}
	if s.SwipeMinBright < 1 {
		errs = append(errs, fmt.Errorf("swipe_min_bright must be >= 1, got %d", s.SwipeMinBright))
	}
	if s.SwipeThreshold <= 0 {
		errs = append(errs, fmt.Errorf("swipe_threshold must be positive, got %v", s.SwipeThreshold))
	}
	if s.SwipeCooldown < 0 {
		errs = append(errs, fmt.Errorf("swipe_cooldown must be >= 0, got %d", s.SwipeCooldown))
	}

	if s.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if s.PluginTimeout <= 0 {
		errs = append(errs, fmt.Errorf("plugin_timeout must be positive, got %v", s.PluginTimeout))
	}

	return errors.Join(errs...)
}

// ResolveDataDir returns the data directory, defaulting to ~/.nritya.
func (s *Settings) ResolveDataDir() (string, error) {
	if s.DataDir != "" {
		return s.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, "."+AppName), nil
}

// ResolvePluginDir returns the plugin directory, defaulting to
// <data_dir>/plugins.
func (s *Settings) ResolvePluginDir() (string, error) {
	if s.PluginDir != "" {
		return s.PluginDir, nil
	}
	dir, err := s.ResolveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "plugins"), nil
}

// CameraConfig converts the camera settings.
func (s *Settings) CameraConfig() capture.CameraConfig {
	return capture.CameraConfig{
		DeviceID: s.CameraDevice,
		Width:    s.CameraWidth,
		Height:   s.CameraHeight,
		FPS:      s.CameraFPS,
	}
}

// DetectorConfig converts the hand tracking settings.
func (s *Settings) DetectorConfig() detector.Config {
	return detector.Config{
		MaxHands:      s.MaxHands,
		MinConfidence: s.MinDetectionConfidence,
		ScriptPath:    s.MediaPipeScript,
	}
}

// ClassifierConfig converts the classifier settings.
func (s *Settings) ClassifierConfig() gesture.ClassifierConfig {
	return gesture.ClassifierConfig{
		Thresholds: gesture.Thresholds{
			ThumbUp:     s.ThumbUpThreshold,
			Pointing:    s.PointingThreshold,
			OpenPalm:    s.OpenPalmThreshold,
			ClosedFist:  s.ClosedFistThreshold,
			NotExtended: s.NotExtendedThreshold,
		},
		Tolerance: s.CalibrationTolerance,
	}
}

// DebounceConfig converts the debouncer settings.
func (s *Settings) DebounceConfig() gesture.DebounceConfig {
	return gesture.DebounceConfig{
		Debounce:            s.Debounce,
		SameGestureFactor:   s.SameGestureFactor,
		ConfidenceThreshold: s.ConfidenceThreshold,
		DisplayWindow:       s.DisplayWindow,
	}
}

// CalibrationConfig converts the calibration settings.
func (s *Settings) CalibrationConfig() calibration.Config {
	return calibration.Config{
		SamplesNeeded: s.CalibrationSamples,
		Timeout:       s.CalibrationTimeout,
	}
}

// SwipeConfig converts the motion tracker settings.
func (s *Settings) SwipeConfig() capture.SwipeConfig {
	return capture.SwipeConfig{
		Stride:     s.SwipeStride,
		Brightness: s.SwipeBrightness,
		MinBright:  s.SwipeMinBright,
		Threshold:  s.SwipeThreshold,
		Cooldown:   s.SwipeCooldown,
	}
}
