package gesture

import "github.com/ayusman/nritya/internal/detector"

// Feature names one scalar of a FeatureVector.
type Feature string

const (
	ThumbExtension  Feature = "thumb_extension"
	IndexExtension  Feature = "index_extension"
	MiddleExtension Feature = "middle_extension"
	RingExtension   Feature = "ring_extension"
	PinkyExtension  Feature = "pinky_extension"
	IndexCurl       Feature = "index_curl"
	MiddleCurl      Feature = "middle_curl"
	RingCurl        Feature = "ring_curl"
	PinkyCurl       Feature = "pinky_curl"
)

// Extensions and Curls group the features used by the palm and fist rules.
var (
	Extensions = []Feature{ThumbExtension, IndexExtension, MiddleExtension, RingExtension, PinkyExtension}
	Curls      = []Feature{IndexCurl, MiddleCurl, RingCurl, PinkyCurl}
)

// FeatureVector holds the per-hand scalars used by the classifier.
//
// Extension is wrist.y - tip.y: positive when the fingertip is above the
// wrist in an upright frame. Curl is tip.y - pip.y: positive when the tip has
// dropped below its own middle joint. Neither is normalized for hand size or
// camera distance.
type FeatureVector struct {
	ThumbExtension  float64 `json:"thumb_extension"`
	IndexExtension  float64 `json:"index_extension"`
	MiddleExtension float64 `json:"middle_extension"`
	RingExtension   float64 `json:"ring_extension"`
	PinkyExtension  float64 `json:"pinky_extension"`

	IndexCurl  float64 `json:"index_curl"`
	MiddleCurl float64 `json:"middle_curl"`
	RingCurl   float64 `json:"ring_curl"`
	PinkyCurl  float64 `json:"pinky_curl"`
}

// Get returns the value of a named feature.
func (fv FeatureVector) Get(f Feature) float64 {
	switch f {
	case ThumbExtension:
		return fv.ThumbExtension
	case IndexExtension:
		return fv.IndexExtension
	case MiddleExtension:
		return fv.MiddleExtension
	case RingExtension:
		return fv.RingExtension
	case PinkyExtension:
		return fv.PinkyExtension
	case IndexCurl:
		return fv.IndexCurl
	case MiddleCurl:
		return fv.MiddleCurl
	case RingCurl:
		return fv.RingCurl
	case PinkyCurl:
		return fv.PinkyCurl
	}
	return 0
}

// Extract derives the feature vector of a hand. It returns false for a nil
// hand.
func Extract(hand *detector.HandLandmarks) (FeatureVector, bool) {
	if hand == nil {
		return FeatureVector{}, false
	}

	p := &hand.Points
	wrist := p[detector.Wrist].Y

	return FeatureVector{
		ThumbExtension:  wrist - p[detector.ThumbTip].Y,
		IndexExtension:  wrist - p[detector.IndexTip].Y,
		MiddleExtension: wrist - p[detector.MiddleTip].Y,
		RingExtension:   wrist - p[detector.RingTip].Y,
		PinkyExtension:  wrist - p[detector.PinkyTip].Y,

		IndexCurl:  p[detector.IndexTip].Y - p[detector.IndexPIP].Y,
		MiddleCurl: p[detector.MiddleTip].Y - p[detector.MiddlePIP].Y,
		RingCurl:   p[detector.RingTip].Y - p[detector.RingPIP].Y,
		PinkyCurl:  p[detector.PinkyTip].Y - p[detector.PinkyPIP].Y,
	}, true
}

// ExtractPoints validates a raw landmark list and extracts its features.
// Lists that are not exactly 21 landmarks long yield no features.
func ExtractPoints(points []detector.Point3D) (FeatureVector, bool) {
	hand, err := detector.ParseHand(points, "", 0)
	if err != nil {
		return FeatureVector{}, false
	}
	return Extract(&hand)
}
