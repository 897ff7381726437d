package gesture

// Thresholds are the fixed constants used when no calibration is present.
type Thresholds struct {
	// ThumbUp is the thumb extension a thumbs up must exceed.
	ThumbUp float64
	// Pointing is the index extension a point must exceed.
	Pointing float64
	// OpenPalm is the extension every digit must exceed.
	OpenPalm float64
	// ClosedFist is the curl every non-thumb finger must exceed.
	ClosedFist float64
	// NotExtended is the extension below which a finger counts as folded
	// below the wrist line.
	NotExtended float64
}

// DefaultThresholds returns the uncalibrated rule constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ThumbUp:     0.2,
		Pointing:    0.2,
		OpenPalm:    0.1,
		ClosedFist:  0.0,
		NotExtended: 0.0,
	}
}

// DefaultTolerance is subtracted from a calibrated mean to form the
// threshold for that pose.
const DefaultTolerance = 0.05

// ClassifierConfig configures a Classifier.
type ClassifierConfig struct {
	Thresholds Thresholds
	Tolerance  float64
}

// DefaultClassifierConfig returns the default classifier settings.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		Thresholds: DefaultThresholds(),
		Tolerance:  DefaultTolerance,
	}
}

// Classifier applies the heuristic pose rules to feature vectors.
//
// Rules are tried in a fixed priority order and the first match wins:
// THUMB_UP, POINTING, OPEN_PALM, CLOSED_FIST. Anything else is NONE.
type Classifier struct {
	config  ClassifierConfig
	profile *Profile
}

// NewClassifier creates a Classifier with the given configuration.
func NewClassifier(config ClassifierConfig) *Classifier {
	return &Classifier{config: config}
}

// SetProfile installs a calibration profile. The classifier keeps a frozen
// copy; passing nil restores the default thresholds.
func (c *Classifier) SetProfile(p *Profile) {
	if p == nil {
		c.profile = nil
		return
	}
	if !p.Frozen() {
		p = p.Freeze()
	}
	c.profile = p
}

// Profile returns the active calibration profile, if any.
func (c *Classifier) Profile() *Profile {
	return c.profile
}

// Classify returns the highest-priority pose matched by fv.
func (c *Classifier) Classify(fv FeatureVector) Result {
	switch {
	case c.isThumbUp(fv):
		return Result{Type: ThumbUp, Confidence: ConfidenceLandmark}
	case c.isPointing(fv):
		return Result{Type: Pointing, Confidence: ConfidenceLandmark}
	case c.isOpenPalm(fv):
		return Result{Type: OpenPalm, Confidence: ConfidenceLandmark}
	case c.isClosedFist(fv):
		return Result{Type: ClosedFist, Confidence: ConfidenceLandmark}
	}
	return Result{Type: None, Confidence: 0}
}

// threshold returns the calibrated threshold for feature f of pose t, or def
// when the profile has nothing for it.
func (c *Classifier) threshold(t Type, f Feature, def float64) float64 {
	if mean, ok := c.profile.Mean(t, f); ok {
		return mean - c.config.Tolerance
	}
	return def
}

func (c *Classifier) folded(v float64) bool {
	return v < c.config.Thresholds.NotExtended
}

func (c *Classifier) isThumbUp(fv FeatureVector) bool {
	return fv.ThumbExtension > c.threshold(ThumbUp, ThumbExtension, c.config.Thresholds.ThumbUp) &&
		c.folded(fv.IndexExtension) &&
		c.folded(fv.MiddleExtension)
}

func (c *Classifier) isPointing(fv FeatureVector) bool {
	return fv.IndexExtension > c.threshold(Pointing, IndexExtension, c.config.Thresholds.Pointing) &&
		c.folded(fv.MiddleExtension) &&
		c.folded(fv.RingExtension) &&
		c.folded(fv.PinkyExtension)
}

func (c *Classifier) isOpenPalm(fv FeatureVector) bool {
	for _, f := range Extensions {
		if fv.Get(f) <= c.threshold(OpenPalm, f, c.config.Thresholds.OpenPalm) {
			return false
		}
	}
	return true
}

func (c *Classifier) isClosedFist(fv FeatureVector) bool {
	for _, f := range Curls {
		if fv.Get(f) <= c.threshold(ClosedFist, f, c.config.Thresholds.ClosedFist) {
			return false
		}
	}
	return true
}
