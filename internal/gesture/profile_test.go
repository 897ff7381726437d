package gesture

import (
	"errors"
	"math"
	"testing"
)

func TestProfile_FoldRunningMean(t *testing.T) {
	p := NewProfile()

	samples := []float64{0.28, 0.30, 0.32, 0.29, 0.31}
	var sum float64
	for _, v := range samples {
		sum += v
		if err := p.Fold(ThumbUp, FeatureVector{ThumbExtension: v, IndexExtension: 9}); err != nil {
			t.Fatalf("Fold() error: %v", err)
		}
	}

	if got := p.Samples(ThumbUp); got != len(samples) {
		t.Errorf("expected %d samples, got %d", len(samples), got)
	}

	mean, ok := p.Mean(ThumbUp, ThumbExtension)
	if !ok {
		t.Fatal("expected a thumb mean")
	}
	if want := sum / float64(len(samples)); math.Abs(mean-want) > 1e-9 {
		t.Errorf("mean = %v, want %v", mean, want)
	}

	// Index extension is not relevant to THUMB_UP.
	if _, ok := p.Mean(ThumbUp, IndexExtension); ok {
		t.Error("expected no index mean for THUMB_UP")
	}
}

func TestProfile_IdenticalSamplesConverge(t *testing.T) {
	const v = 0.3
	for _, n := range []int{1, 2, 10, 1000} {
		p := NewProfile()
		for i := 0; i < n; i++ {
			if err := p.Fold(Pointing, FeatureVector{IndexExtension: v}); err != nil {
				t.Fatalf("Fold() error: %v", err)
			}
		}

		mean, ok := p.Mean(Pointing, IndexExtension)
		if !ok {
			t.Fatalf("n=%d: expected an index mean", n)
		}
		if math.Abs(mean-v) > 1e-12 {
			t.Errorf("n=%d: mean = %v, want %v", n, mean, v)
		}
		if got := p.Samples(Pointing); got != n {
			t.Errorf("n=%d: samples = %d", n, got)
		}
	}
}

func TestProfile_OpenPalmCollectsAllExtensions(t *testing.T) {
	p := NewProfile()
	fv := FeatureVector{ThumbExtension: 0.2, IndexExtension: 0.4, MiddleExtension: 0.45, RingExtension: 0.4, PinkyExtension: 0.3}
	if err := p.Fold(OpenPalm, fv); err != nil {
		t.Fatalf("Fold() error: %v", err)
	}

	for _, f := range Extensions {
		if mean, ok := p.Mean(OpenPalm, f); !ok || mean != fv.Get(f) {
			t.Errorf("Mean(%s) = %v, %v; want %v", f, mean, ok, fv.Get(f))
		}
	}
}

func TestProfile_Reset(t *testing.T) {
	p := NewProfile()
	_ = p.Fold(Pointing, FeatureVector{IndexExtension: 0.4})
	_ = p.Fold(ClosedFist, FeatureVector{IndexCurl: 0.1})

	if err := p.Reset(Pointing); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if got := p.Samples(Pointing); got != 0 {
		t.Errorf("expected 0 samples after reset, got %d", got)
	}
	if got := p.Samples(ClosedFist); got != 1 {
		t.Errorf("reset touched another pose: %d samples", got)
	}
}

func TestProfile_Freeze(t *testing.T) {
	p := NewProfile()
	p.Name = "desk"
	_ = p.Fold(PinkyUp, FeatureVector{PinkyExtension: 0.3})

	frozen := p.Freeze()
	if !frozen.Frozen() {
		t.Fatal("expected frozen copy")
	}
	if p.Frozen() {
		t.Error("freezing must not freeze the original")
	}
	if frozen.Name != "desk" {
		t.Errorf("expected name to carry over, got %q", frozen.Name)
	}

	if err := frozen.Fold(PinkyUp, FeatureVector{PinkyExtension: 1}); !errors.Is(err, ErrProfileFrozen) {
		t.Errorf("expected ErrProfileFrozen, got %v", err)
	}
	if err := frozen.Reset(PinkyUp); !errors.Is(err, ErrProfileFrozen) {
		t.Errorf("expected ErrProfileFrozen, got %v", err)
	}

	// The original keeps accepting samples without affecting the copy.
	_ = p.Fold(PinkyUp, FeatureVector{PinkyExtension: 0.5})
	if got := frozen.Samples(PinkyUp); got != 1 {
		t.Errorf("frozen copy changed: %d samples", got)
	}
}

func TestProfile_NilSafe(t *testing.T) {
	var p *Profile
	if p.Samples(ThumbUp) != 0 {
		t.Error("expected 0 samples on nil profile")
	}
	if _, ok := p.Mean(ThumbUp, ThumbExtension); ok {
		t.Error("expected no mean on nil profile")
	}
}
