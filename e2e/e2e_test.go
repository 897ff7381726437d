package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/nritya/internal/app"
	"github.com/ayusman/nritya/internal/controller"
	"github.com/ayusman/nritya/internal/detector"
	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/plugin"
	"github.com/ayusman/nritya/internal/server"
	"github.com/ayusman/nritya/internal/store"
	"github.com/ayusman/nritya/internal/timeutil"
)

// installRecorder writes a stand-in slides plugin that appends every
// request it receives to requests.log.
func installRecorder(t *testing.T, pluginDir string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := filepath.Join(pluginDir, controller.DefaultPlugin)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	manifest := `{"name":"slides","version":"1.0.0","executable":"record.sh",
"actions":["next","previous","play","pause","pointer","acknowledge"]}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	script := `#!/bin/sh
LOG="$(dirname "$0")/requests.log"
cat >> "$LOG"
echo >> "$LOG"
echo '{"success":true}'
`
	if err := os.WriteFile(filepath.Join(dir, "record.sh"), []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return filepath.Join(dir, "requests.log")
}

func readRequests(t *testing.T, path string) []plugin.Request {
	t.Helper()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatalf("read requests: %v", err)
	}

	var reqs []plugin.Request
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var req plugin.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.Fatalf("bad request line %q: %v", line, err)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

func TestE2E_GestureToSlideCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	logPath := installRecorder(t, filepath.Join(tmpDir, "plugins"))

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	plugins := plugin.NewManager(filepath.Join(tmpDir, "plugins"))
	if err := plugins.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if _, err := controller.SeedDefaults(s.Actions()); err != nil {
		t.Fatalf("SeedDefaults() error = %v", err)
	}

	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	mockDetector := detector.NewMockDetector()
	cfg := app.DefaultConfig()
	cfg.Store = s
	cfg.Clock = clock
	cfg.Detector = mockDetector
	application := app.New(cfg)

	ctrl := controller.New(s.Actions(), plugins, plugin.NewExecutor(5*time.Second))
	application.OnEvent(ctrl.Handle)

	ts := httptest.NewServer(server.New(server.Config{
		Store:   s,
		App:     application,
		Plugins: plugins,
	}))
	defer ts.Close()
	client := ts.Client()

	t.Run("DefaultBindings", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/actions")
		if err != nil {
			t.Fatalf("list actions error = %v", err)
		}
		defer resp.Body.Close()

		var list struct {
			Actions []store.Action `json:"actions"`
		}
		json.NewDecoder(resp.Body).Decode(&list)
		if len(list.Actions) != len(controller.Commands) {
			t.Errorf("got %d bindings, want %d", len(list.Actions), len(controller.Commands))
		}
	})

	t.Run("KeyboardTrigger", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/simulate", "application/json", strings.NewReader(`{"key":"ArrowRight"}`))
		if err != nil {
			t.Fatalf("simulate error = %v", err)
		}
		resp.Body.Close()
		ctrl.Wait()

		reqs := readRequests(t, logPath)
		if len(reqs) != 1 {
			t.Fatalf("plugin received %d requests, want 1", len(reqs))
		}
		if reqs[0].Action != string(controller.CommandNext) || reqs[0].Gesture != string(gesture.SwipeRight) {
			t.Errorf("unexpected request %+v", reqs[0])
		}
		if reqs[0].Source != string(gesture.SourceKeyboard) {
			t.Errorf("source = %q, want keyboard", reqs[0].Source)
		}
	})

	t.Run("LandmarkPose", func(t *testing.T) {
		// Still inside the debounce window of the swipe.
		clock.Advance(100 * time.Millisecond)
		if ev := application.HandleFrame(detector.Frame{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}}); ev != nil {
			t.Fatalf("event inside debounce window: %+v", ev)
		}

		clock.Advance(time.Second)
		ev := application.HandleFrame(detector.Frame{Hands: []detector.HandLandmarks{detector.OpenPalmLandmarks()}})
		if ev == nil || ev.Type != gesture.OpenPalm {
			t.Fatalf("HandleFrame() = %+v, want OPEN_PALM", ev)
		}
		ctrl.Wait()

		reqs := readRequests(t, logPath)
		if len(reqs) != 2 || reqs[1].Action != string(controller.CommandPlay) {
			t.Errorf("unexpected requests %+v", reqs)
		}
	})

	t.Run("DisabledDropsTriggers", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/enabled", "application/json", strings.NewReader(`{"enabled":false}`))
		if err != nil {
			t.Fatalf("disable error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("disable status = %d", resp.StatusCode)
		}

		clock.Advance(5 * time.Second)
		resp, _ = client.Post(ts.URL+"/api/simulate", "application/json", strings.NewReader(`{"key":"f"}`))
		resp.Body.Close()
		ctrl.Wait()

		if reqs := readRequests(t, logPath); len(reqs) != 2 {
			t.Errorf("plugin received %d requests while disabled, want 2", len(reqs))
		}
	})

	t.Run("HistoryRecorded", func(t *testing.T) {
		events, err := s.Events().Recent(10)
		if err != nil {
			t.Fatalf("Recent() error = %v", err)
		}
		if len(events) != 2 {
			t.Errorf("got %d recorded events, want 2", len(events))
		}
	})
}

func TestE2E_CalibrationSurvivesRestart(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "data.db")

	s, err := store.New(dbPath)
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}

	clock := timeutil.NewMockClock(time.Unix(1_700_000_000, 0))
	cfg := app.DefaultConfig()
	cfg.Store = s
	cfg.Clock = clock
	first := app.New(cfg)

	poses := map[gesture.Type]detector.HandLandmarks{
		gesture.ThumbUp:    detector.ThumbsUpLandmarks(),
		gesture.PinkyUp:    detector.PinkyUpLandmarks(),
		gesture.OpenPalm:   detector.OpenPalmLandmarks(),
		gesture.ClosedFist: detector.ClosedFistLandmarks(),
		gesture.Pointing:   detector.PointingLandmarks(),
	}

	snap := first.BeginCalibration()
	for !snap.Done {
		if _, err := first.CalibrationStart(); err != nil {
			t.Fatalf("CalibrationStart() error = %v", err)
		}
		for i := 0; i < cfg.Calibration.SamplesNeeded; i++ {
			clock.Advance(50 * time.Millisecond)
			first.HandleFrame(detector.Frame{Hands: []detector.HandLandmarks{poses[snap.Gesture]}})
		}
		if snap, err = first.CalibrationNext(); err != nil {
			t.Fatalf("CalibrationNext() error = %v", err)
		}
	}
	if first.Profile() == nil {
		t.Fatal("expected an installed profile after calibration")
	}
	s.Close()

	s, err = store.New(dbPath)
	if err != nil {
		t.Fatalf("reopen store error = %v", err)
	}
	defer s.Close()

	cfg.Store = s
	second := app.New(cfg)
	if err := second.LoadProfile(); err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}
	if second.Profile() == nil {
		t.Fatal("profile not restored from store")
	}
	if got := second.Profile().Samples(gesture.ThumbUp); got != cfg.Calibration.SamplesNeeded {
		t.Errorf("restored ThumbUp samples = %d, want %d", got, cfg.Calibration.SamplesNeeded)
	}
}
