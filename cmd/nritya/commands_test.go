package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/store"
)

// isolate points config and data lookups at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	return home
}

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute(%v) error = %v\n%s", args, err, buf.String())
	}
	return buf.String()
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"camera", "c"},
		{"addr", "a"},
		{"data-dir", ""},
		{"plugin-dir", ""},
		{"tray", ""},
		{"debug", "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Errorf("flag %q not found", tt.name)
				return
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", tt.name)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "nritya" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "nritya")
	}
	if rootCmd.Short == "" || rootCmd.Long == "" {
		t.Error("rootCmd is missing help text")
	}

	for _, name := range []string{"serve", "simulate", "profiles"} {
		if cmd, _, err := rootCmd.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	isolate(t)

	output := execute(t, "", "--help")
	if !strings.Contains(output, "nritya") {
		t.Errorf("help output should contain 'nritya'")
	}
	if !strings.Contains(output, "--camera") {
		t.Errorf("help output should contain '--camera'")
	}
}

func TestSimulateCmd_Args(t *testing.T) {
	home := isolate(t)

	// The second swipe lands inside the debounce window.
	output := execute(t, "", "simulate", "--data-dir", home, "ArrowRight", "ArrowLeft")
	if output != "SWIPE_RIGHT 1.00 keyboard\n" {
		t.Errorf("simulate output = %q", output)
	}
}

func TestSimulateCmd_Stdin(t *testing.T) {
	home := isolate(t)

	output := execute(t, "nope\n  t \n", "simulate", "--data-dir", home)
	if output != "THUMB_UP 1.00 keyboard\n" {
		t.Errorf("simulate output = %q", output)
	}
}

func TestProfilesCmd(t *testing.T) {
	home := isolate(t)
	dataDir := filepath.Join(home, "data")

	output := execute(t, "", "profiles", "--data-dir", dataDir)
	if !strings.HasPrefix(output, "ID") {
		t.Fatalf("profiles output = %q, want header", output)
	}

	st, err := store.New(filepath.Join(dataDir, "nritya.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	p := gesture.NewProfile()
	p.Name = "Stage"
	if err := p.Fold(gesture.ThumbUp, gesture.FeatureVector{ThumbExtension: 0.4}); err != nil {
		t.Fatalf("Fold() error = %v", err)
	}
	frozen := p.Freeze()
	if err := st.Profiles().Save(frozen); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	st.Close()

	output = execute(t, "", "profiles", "activate", frozen.ID, "--data-dir", dataDir)
	if !strings.Contains(output, "Activated "+frozen.ID) {
		t.Errorf("activate output = %q", output)
	}

	output = execute(t, "", "profiles", "--data-dir", dataDir)
	if !strings.Contains(output, "Stage") || !strings.Contains(output, "THUMB_UP") || !strings.Contains(output, "*") {
		t.Errorf("profiles output = %q", output)
	}

	output = execute(t, "", "profiles", "delete", frozen.ID, "--data-dir", dataDir)
	if !strings.Contains(output, "Deleted "+frozen.ID) {
		t.Errorf("delete output = %q", output)
	}
}
