package api

import (
	"net/http"
	"testing"

	"github.com/ayusman/nritya/internal/gesture"
)

type fakeSetter struct {
	profile *gesture.Profile
}

func (f *fakeSetter) SetProfile(p *gesture.Profile) {
	f.profile = p
}

func TestProfileHandler(t *testing.T) {
	s := newTestStore(t)
	setter := &fakeSetter{}
	handler := NewProfileHandler(s, setter)

	rec := do(t, handler, http.MethodGet, "/api/profiles", "")
	var empty listProfilesResponse
	decode(t, rec, &empty)
	if empty.Profiles == nil || len(empty.Profiles) != 0 {
		t.Errorf("expected empty non-nil list, got %v", empty.Profiles)
	}

	p := gesture.NewProfile()
	p.Name = "desk"
	if err := p.Fold(gesture.ThumbUp, gesture.FeatureVector{ThumbExtension: 0.3}); err != nil {
		t.Fatalf("Fold() error: %v", err)
	}
	frozen := p.Freeze()
	if err := s.Profiles().Save(frozen); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	rec = do(t, handler, http.MethodGet, "/api/profiles", "")
	var list listProfilesResponse
	decode(t, rec, &list)
	if len(list.Profiles) != 1 || list.Profiles[0].Name != "desk" || list.Profiles[0].Active {
		t.Fatalf("unexpected profiles %+v", list.Profiles)
	}

	rec = do(t, handler, http.MethodGet, "/api/profiles/"+frozen.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	rec = do(t, handler, http.MethodPost, "/api/profiles/"+frozen.ID+"/activate", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if setter.profile == nil || setter.profile.ID != frozen.ID {
		t.Errorf("profile not installed: %+v", setter.profile)
	}
	if active, err := s.Profiles().Active(); err != nil || active.ID != frozen.ID {
		t.Errorf("Active() = %v, %v", active, err)
	}

	rec = do(t, handler, http.MethodPost, "/api/profiles/missing/activate", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}

	rec = do(t, handler, http.MethodDelete, "/api/profiles/"+frozen.ID, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	rec = do(t, handler, http.MethodGet, "/api/profiles/"+frozen.ID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
