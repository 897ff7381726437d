package gesture

import (
	"testing"

	"github.com/ayusman/nritya/internal/detector"
)

// folded is a vector with every finger below the wrist line and no curl.
func foldedVector() FeatureVector {
	return FeatureVector{
		ThumbExtension:  -0.1,
		IndexExtension:  -0.1,
		MiddleExtension: -0.1,
		RingExtension:   -0.1,
		PinkyExtension:  -0.1,
	}
}

func TestClassifier_ThumbUp(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	fv := foldedVector()
	fv.ThumbExtension = 0.3

	got := c.Classify(fv)
	if got.Type != ThumbUp {
		t.Errorf("expected THUMB_UP, got %s", got.Type)
	}
	if got.Confidence != 0.9 {
		t.Errorf("expected confidence 0.9, got %v", got.Confidence)
	}
}

func TestClassifier_Rules(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name string
		fv   FeatureVector
		want Type
	}{
		{
			name: "pointing",
			fv: FeatureVector{
				ThumbExtension: 0.05, IndexExtension: 0.4,
				MiddleExtension: -0.1, RingExtension: -0.1, PinkyExtension: -0.1,
			},
			want: Pointing,
		},
		{
			name: "open palm",
			fv: FeatureVector{
				ThumbExtension: 0.2, IndexExtension: 0.4,
				MiddleExtension: 0.4, RingExtension: 0.4, PinkyExtension: 0.3,
			},
			want: OpenPalm,
		},
		{
			name: "closed fist",
			fv: FeatureVector{
				ThumbExtension: 0.1, IndexExtension: -0.05,
				MiddleExtension: -0.05, RingExtension: -0.05, PinkyExtension: -0.05,
				IndexCurl: 0.1, MiddleCurl: 0.1, RingCurl: 0.1, PinkyCurl: 0.1,
			},
			want: ClosedFist,
		},
		{
			name: "thumb at threshold is not a match",
			fv: FeatureVector{
				ThumbExtension: 0.2, IndexExtension: -0.1,
				MiddleExtension: -0.1, RingExtension: -0.1, PinkyExtension: -0.1,
			},
			want: None,
		},
		{
			name: "fist with one straight finger",
			fv: FeatureVector{
				IndexCurl: 0.1, MiddleCurl: 0.1, RingCurl: 0.1, PinkyCurl: -0.1,
			},
			want: None,
		},
		{
			name: "zero vector",
			fv:   FeatureVector{},
			want: None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.fv)
			if got.Type != tt.want {
				t.Errorf("Classify() = %s, want %s", got.Type, tt.want)
			}
			if tt.want == None && got.Confidence != 0 {
				t.Errorf("expected confidence 0 for NONE, got %v", got.Confidence)
			}
		})
	}
}

func TestClassifier_Priority(t *testing.T) {
	// Loosen the pointing rule so a thumbs up also satisfies it.
	config := DefaultClassifierConfig()
	config.Thresholds.Pointing = -0.5
	c := NewClassifier(config)

	fv := foldedVector()
	fv.ThumbExtension = 0.3

	if got := c.Classify(fv); got.Type != ThumbUp {
		t.Errorf("expected THUMB_UP to win over POINTING, got %s", got.Type)
	}
}

func TestClassifier_Fixtures(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Type
	}{
		{"thumbs up", detector.ThumbsUpLandmarks(), ThumbUp},
		{"open palm", detector.OpenPalmLandmarks(), OpenPalm},
		{"closed fist", detector.ClosedFistLandmarks(), ClosedFist},
		{"pointing", detector.PointingLandmarks(), Pointing},
		{"pinky up", detector.PinkyUpLandmarks(), None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, ok := Extract(&tt.hand)
			if !ok {
				t.Fatal("expected features")
			}
			if got := c.Classify(fv); got.Type != tt.want {
				t.Errorf("Classify() = %s, want %s", got.Type, tt.want)
			}
		})
	}
}

func TestClassifier_Calibrated(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	// A weak thumbs up that the default 0.2 threshold rejects.
	fv := foldedVector()
	fv.ThumbExtension = 0.15

	if got := c.Classify(fv); got.Type != None {
		t.Fatalf("expected NONE before calibration, got %s", got.Type)
	}

	p := NewProfile()
	for _, v := range []float64{0.16, 0.18, 0.20} {
		if err := p.Fold(ThumbUp, FeatureVector{ThumbExtension: v}); err != nil {
			t.Fatalf("Fold() error: %v", err)
		}
	}
	c.SetProfile(p)

	// Calibrated threshold is 0.18 - 0.05 = 0.13.
	if got := c.Classify(fv); got.Type != ThumbUp {
		t.Errorf("expected THUMB_UP after calibration, got %s", got.Type)
	}

	c.SetProfile(nil)
	if got := c.Classify(fv); got.Type != None {
		t.Errorf("expected NONE after clearing the profile, got %s", got.Type)
	}
}

func TestClassifier_SetProfileFreezes(t *testing.T) {
	c := NewClassifier(DefaultClassifierConfig())

	p := NewProfile()
	if err := p.Fold(Pointing, FeatureVector{IndexExtension: 0.5}); err != nil {
		t.Fatalf("Fold() error: %v", err)
	}
	c.SetProfile(p)

	// Later edits to the caller's profile must not leak into the classifier.
	if err := p.Fold(Pointing, FeatureVector{IndexExtension: 1.5}); err != nil {
		t.Fatalf("Fold() error: %v", err)
	}

	active := c.Profile()
	if !active.Frozen() {
		t.Error("expected the installed profile to be frozen")
	}
	if mean, _ := active.Mean(Pointing, IndexExtension); mean != 0.5 {
		t.Errorf("expected installed mean 0.5, got %v", mean)
	}
}
