package plugin

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeManifest creates dir/name/plugin.json for m.
func writeManifest(t *testing.T, dir, name string, m Manifest) string {
	t.Helper()

	pluginDir := filepath.Join(dir, name)
	if err := os.MkdirAll(pluginDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(pluginDir, ManifestFile), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	return pluginDir
}

func TestManager_Discover(t *testing.T) {
	tmpDir := t.TempDir()

	pluginDir := writeManifest(t, tmpDir, "slides", Manifest{
		Name:        "slides",
		Version:     "1.0.0",
		Description: "Slideshow control",
		Executable:  "slides",
		Actions:     []string{"next", "previous"},
	})

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 1 {
		t.Fatalf("expected 1 plugin, got %d", len(plugins))
	}

	plugin := plugins[0]
	if plugin.Manifest.Name != "slides" {
		t.Errorf("expected plugin name 'slides', got %q", plugin.Manifest.Name)
	}
	if plugin.Manifest.Description != "Slideshow control" {
		t.Errorf("unexpected description %q", plugin.Manifest.Description)
	}
	if plugin.Path != pluginDir {
		t.Errorf("expected path %q, got %q", pluginDir, plugin.Path)
	}
	if want := filepath.Join(pluginDir, "slides"); plugin.Executable != want {
		t.Errorf("expected executable %q, got %q", want, plugin.Executable)
	}
	if !plugin.Manifest.Supports("next") || plugin.Manifest.Supports("play") {
		t.Error("Supports() does not match the declared actions")
	}
}

func TestManager_Discover_SortedList(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		writeManifest(t, tmpDir, name, Manifest{Name: name, Executable: name})
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 3 {
		t.Fatalf("expected 3 plugins, got %d", len(plugins))
	}
	for i, want := range []string{"alpha", "mid", "zeta"} {
		if plugins[i].Manifest.Name != want {
			t.Errorf("plugins[%d] = %q, want %q", i, plugins[i].Manifest.Name, want)
		}
	}
}

func TestManager_Discover_SkipsBadManifests(t *testing.T) {
	tmpDir := t.TempDir()

	badDir := filepath.Join(tmpDir, "bad-plugin")
	if err := os.MkdirAll(badDir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(badDir, ManifestFile), []byte("not valid json"), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	writeManifest(t, tmpDir, "nameless", Manifest{Executable: "x"})
	if err := os.MkdirAll(filepath.Join(tmpDir, "no-manifest"), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}

	manager := NewManager(tmpDir)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed unexpectedly: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager("/path/that/does/not/exist")

	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed on non-existent dir: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 0 {
		t.Fatalf("expected 0 plugins, got %d", len(plugins))
	}
}

func TestManager_GetRegister(t *testing.T) {
	manager := NewManager(t.TempDir())

	if _, err := manager.Get("slides"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}

	manager.Register(&Plugin{Manifest: Manifest{Name: "slides", Version: "2.0.0"}})

	plugin, err := manager.Get("slides")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if plugin.Manifest.Version != "2.0.0" {
		t.Errorf("expected version '2.0.0', got %q", plugin.Manifest.Version)
	}

	// Discover rebuilds the set from disk.
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if _, err := manager.Get("slides"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected registered plugin to be cleared, got %v", err)
	}
}

func TestManager_PluginDir(t *testing.T) {
	manager := NewManager("/path/to/plugins")

	if manager.PluginDir() != "/path/to/plugins" {
		t.Errorf("unexpected plugin dir %q", manager.PluginDir())
	}
}
