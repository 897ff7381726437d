package gesture

import (
	"errors"
	"time"
)

// ErrProfileFrozen is returned when a sample is folded into a frozen profile.
var ErrProfileFrozen = errors.New("profile is frozen")

// RelevantFeatures lists the features each calibration pose collects.
var RelevantFeatures = map[Type][]Feature{
	ThumbUp:    {ThumbExtension},
	PinkyUp:    {PinkyExtension},
	OpenPalm:   Extensions,
	ClosedFist: Curls,
	Pointing:   {IndexExtension},
}

// ProfileEntry is the running aggregate for one pose.
type ProfileEntry struct {
	Samples int                 `json:"samples"`
	Means   map[Feature]float64 `json:"means"`
}

// Profile holds personalized baseline feature values per pose.
//
// A profile is built sample by sample during calibration, then frozen and
// handed to a Classifier. A frozen profile no longer accepts samples.
type Profile struct {
	ID        string                 `json:"id,omitempty"`
	Name      string                 `json:"name,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	Entries   map[Type]*ProfileEntry `json:"entries"`

	frozen bool
}

// NewProfile returns an empty, mutable profile.
func NewProfile() *Profile {
	return &Profile{
		CreatedAt: time.Now(),
		Entries:   make(map[Type]*ProfileEntry),
	}
}

// Fold adds one sample for pose t, updating the running mean of each
// relevant feature: newMean = (oldMean*n + sample) / (n+1).
func (p *Profile) Fold(t Type, fv FeatureVector) error {
	if p.frozen {
		return ErrProfileFrozen
	}

	entry, ok := p.Entries[t]
	if !ok {
		entry = &ProfileEntry{Means: make(map[Feature]float64)}
		p.Entries[t] = entry
	}

	n := float64(entry.Samples)
	for _, f := range RelevantFeatures[t] {
		entry.Means[f] = (entry.Means[f]*n + fv.Get(f)) / (n + 1)
	}
	entry.Samples++
	return nil
}

// Reset discards everything collected for pose t.
func (p *Profile) Reset(t Type) error {
	if p.frozen {
		return ErrProfileFrozen
	}
	delete(p.Entries, t)
	return nil
}

// Samples returns how many samples pose t has received.
func (p *Profile) Samples(t Type) int {
	if p == nil {
		return 0
	}
	if entry, ok := p.Entries[t]; ok {
		return entry.Samples
	}
	return 0
}

// Mean returns the running mean of feature f for pose t.
func (p *Profile) Mean(t Type, f Feature) (float64, bool) {
	if p == nil {
		return 0, false
	}
	entry, ok := p.Entries[t]
	if !ok || entry.Samples == 0 {
		return 0, false
	}
	m, ok := entry.Means[f]
	return m, ok
}

// Freeze returns a frozen deep copy of the profile.
func (p *Profile) Freeze() *Profile {
	frozen := &Profile{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		Entries:   make(map[Type]*ProfileEntry, len(p.Entries)),
		frozen:    true,
	}
	for t, entry := range p.Entries {
		means := make(map[Feature]float64, len(entry.Means))
		for f, m := range entry.Means {
			means[f] = m
		}
		frozen.Entries[t] = &ProfileEntry{Samples: entry.Samples, Means: means}
	}
	return frozen
}

// Frozen reports whether the profile still accepts samples.
func (p *Profile) Frozen() bool {
	return p.frozen
}
