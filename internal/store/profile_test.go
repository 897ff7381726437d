package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/nritya/internal/gesture"
)

func frozenProfile(t *testing.T, name string) *gesture.Profile {
	t.Helper()

	p := gesture.NewProfile()
	p.Name = name
	p.CreatedAt = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	for _, v := range []float64{0.30, 0.32} {
		if err := p.Fold(gesture.ThumbUp, gesture.FeatureVector{ThumbExtension: v}); err != nil {
			t.Fatalf("Fold() error: %v", err)
		}
	}
	fv := gesture.FeatureVector{IndexCurl: 0.1, MiddleCurl: 0.12, RingCurl: 0.14, PinkyCurl: 0.16}
	if err := p.Fold(gesture.ClosedFist, fv); err != nil {
		t.Fatalf("Fold() error: %v", err)
	}
	return p.Freeze()
}

func TestProfileRepository_SaveGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := frozenProfile(t, "desk")
	if err := repo.Save(p); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if p.ID == "" {
		t.Fatal("Save() should assign an ID")
	}

	got, err := repo.Get(p.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	if !got.Frozen() {
		t.Error("loaded profile should be frozen")
	}
	if got.Name != "desk" {
		t.Errorf("Name = %q, want desk", got.Name)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, p.CreatedAt)
	}
	if diff := cmp.Diff(p.Entries, got.Entries); diff != "" {
		t.Errorf("entries mismatch (-saved +loaded):\n%s", diff)
	}
}

func TestProfileRepository_SaveRejectsMutable(t *testing.T) {
	s := newTestStore(t)

	err := s.Profiles().Save(gesture.NewProfile())
	if !errors.Is(err, ErrNotFrozen) {
		t.Errorf("Save() error = %v, want ErrNotFrozen", err)
	}
}

func TestProfileRepository_SaveReplaces(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := frozenProfile(t, "first")
	if err := repo.Save(p); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	replacement := gesture.NewProfile()
	_ = replacement.Fold(gesture.Pointing, gesture.FeatureVector{IndexExtension: 0.4})
	replacement = replacement.Freeze()
	replacement.ID = p.ID
	replacement.Name = "renamed"
	if err := repo.Save(replacement); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	got, err := repo.Get(p.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "renamed" {
		t.Errorf("Name = %q, want renamed", got.Name)
	}
	if got.Samples(gesture.ThumbUp) != 0 {
		t.Error("old entries should be replaced")
	}
	if got.Samples(gesture.Pointing) != 1 {
		t.Error("new entries should be stored")
	}
}

func TestProfileRepository_DefaultName(t *testing.T) {
	s := newTestStore(t)

	p := frozenProfile(t, "")
	if err := s.Profiles().Save(p); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if p.Name != "profile 2026-04-01 10:00:00" {
		t.Errorf("Name = %q", p.Name)
	}
}

func TestProfileRepository_SameSecondProfiles(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	for _, name := range []string{"", "", "desk", "desk"} {
		if err := repo.Save(frozenProfile(t, name)); err != nil {
			t.Fatalf("Save(%q) error: %v", name, err)
		}
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 4 {
		t.Errorf("expected 4 profiles, got %d", len(list))
	}
}

func TestProfileRepository_ListAndActive(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	if _, err := repo.Active(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Active() error = %v, want ErrNotFound", err)
	}

	a := frozenProfile(t, "a")
	b := frozenProfile(t, "b")
	b.CreatedAt = b.CreatedAt.Add(time.Hour)
	for _, p := range []*gesture.Profile{a, b} {
		if err := repo.Save(p); err != nil {
			t.Fatalf("Save() error: %v", err)
		}
	}

	if err := repo.SetActive(a.ID); err != nil {
		t.Fatalf("SetActive() error: %v", err)
	}
	if err := repo.SetActive(b.ID); err != nil {
		t.Fatalf("SetActive() error: %v", err)
	}

	list, err := repo.List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(list))
	}
	if list[0].Name != "b" || !list[0].Active || list[1].Active {
		t.Errorf("unexpected list: %+v", list)
	}
	want := []gesture.Type{gesture.ThumbUp, gesture.ClosedFist}
	if diff := cmp.Diff(want, list[0].Gestures); diff != "" {
		t.Errorf("gestures mismatch (-want +got):\n%s", diff)
	}

	active, err := repo.Active()
	if err != nil {
		t.Fatalf("Active() error: %v", err)
	}
	if active.ID != b.ID {
		t.Errorf("Active() = %s, want %s", active.ID, b.ID)
	}

	if err := repo.ClearActive(); err != nil {
		t.Fatalf("ClearActive() error: %v", err)
	}
	if _, err := repo.Active(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Active() after clear error = %v, want ErrNotFound", err)
	}

	if err := repo.SetActive("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetActive(missing) error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repo := s.Profiles()

	p := frozenProfile(t, "gone")
	if err := repo.Save(p); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := repo.Delete(p.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	var n int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM profile_entries`).Scan(&n); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if n != 0 {
		t.Errorf("expected entries to cascade, %d left", n)
	}

	if _, err := repo.Get(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}
