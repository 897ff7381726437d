package capture

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/ayusman/nritya/internal/gesture"
)

// ErrBadPixels is returned for a pixel buffer whose size does not match its
// dimensions.
var ErrBadPixels = errors.New("pixel buffer does not match dimensions")

// Pixels is a packed RGBA frame, four bytes per pixel, row major.
type Pixels struct {
	Data   []byte
	Width  int
	Height int
}

// Valid reports whether Data holds exactly Width*Height RGBA pixels.
func (p Pixels) Valid() bool {
	return p.Width > 0 && p.Height > 0 && len(p.Data) == p.Width*p.Height*4
}

// PixelsFromMat converts a BGR camera frame to an RGBA buffer.
func PixelsFromMat(mat *gocv.Mat) (Pixels, error) {
	if mat == nil || mat.Empty() {
		return Pixels{}, ErrNoFrame
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	gocv.CvtColor(*mat, &rgba, gocv.ColorBGRToRGBA)

	px := Pixels{
		Data:   rgba.ToBytes(),
		Width:  rgba.Cols(),
		Height: rgba.Rows(),
	}
	if !px.Valid() {
		return Pixels{}, ErrBadPixels
	}
	return px, nil
}

// SwipeConfig tunes the motion swipe tracker.
type SwipeConfig struct {
	// Stride is the sampling step in pixels along both axes.
	Stride int
	// Brightness is the mean channel value a pixel must exceed to count.
	Brightness int
	// MinBright is the number of bright samples needed to trust the centroid.
	MinBright int
	// Threshold is the horizontal centroid shift, in pixels, that counts as
	// a swipe.
	Threshold float64
	// Cooldown is the number of frames held after a swipe. The frame after
	// them may swipe again.
	Cooldown int
}

// DefaultSwipeConfig returns the default tracker settings.
func DefaultSwipeConfig() SwipeConfig {
	return SwipeConfig{
		Stride:     10,
		Brightness: 200,
		MinBright:  50,
		Threshold:  50,
		Cooldown:   15,
	}
}

// SwipeTracker follows the horizontal centroid of bright pixels across
// frames and reports large shifts as swipes.
//
// It needs no hand landmarks, so it keeps working when the tracking service
// is unavailable. The centroid is a crude hand-position proxy and is easily
// fooled by lamps or windows in the background.
type SwipeTracker struct {
	config   SwipeConfig
	prevX    float64
	hasPrev  bool
	cooldown int
}

// NewSwipeTracker creates a tracker. Non-positive fields fall back to the
// defaults.
func NewSwipeTracker(config SwipeConfig) *SwipeTracker {
	def := DefaultSwipeConfig()
	if config.Stride <= 0 {
		config.Stride = def.Stride
	}
	if config.Brightness <= 0 {
		config.Brightness = def.Brightness
	}
	if config.MinBright <= 0 {
		config.MinBright = def.MinBright
	}
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	if config.Cooldown < 0 {
		config.Cooldown = def.Cooldown
	}
	return &SwipeTracker{config: config}
}

// Centroid returns the mean x of the bright samples in p and how many were
// found.
func (s *SwipeTracker) Centroid(p Pixels) (float64, int) {
	stride := s.config.Stride
	limit := s.config.Brightness * 3

	var sum, count int
	for y := 0; y < p.Height; y += stride {
		row := y * p.Width * 4
		for x := 0; x < p.Width; x += stride {
			i := row + x*4
			if int(p.Data[i])+int(p.Data[i+1])+int(p.Data[i+2]) > limit {
				sum += x
				count++
			}
		}
	}
	if count == 0 {
		return 0, 0
	}
	return float64(sum) / float64(count), count
}

// Process consumes one frame. It returns SWIPE_RIGHT or SWIPE_LEFT when the
// centroid moved past the threshold outside a cooldown, and NONE otherwise.
// Frames with too few bright samples clear the tracked position.
func (s *SwipeTracker) Process(p Pixels) gesture.Type {
	if !p.Valid() {
		return gesture.None
	}

	held := s.cooldown > 0
	if held {
		s.cooldown--
	}

	x, count := s.Centroid(p)
	if count < s.config.MinBright {
		s.hasPrev = false
		return gesture.None
	}

	prev, had := s.prevX, s.hasPrev
	s.prevX, s.hasPrev = x, true
	if !had || held {
		return gesture.None
	}

	dx := x - prev
	switch {
	case dx > s.config.Threshold:
		s.cooldown = s.config.Cooldown
		return gesture.SwipeRight
	case dx < -s.config.Threshold:
		s.cooldown = s.config.Cooldown
		return gesture.SwipeLeft
	}
	return gesture.None
}

// Reset forgets the tracked position and any cooldown.
func (s *SwipeTracker) Reset() {
	s.hasPrev = false
	s.prevX = 0
	s.cooldown = 0
}
