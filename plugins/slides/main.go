// Package main provides a slideshow control plugin for macOS.
// It turns gesture actions into key events via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action     string          `json:"action"`
	Gesture    string          `json:"gesture"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"source"`
	Config     json.RawMessage `json:"config"`
	Params     json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Config is the per-binding configuration stored with an action.
type Config struct {
	// App is activated before the key event when set, e.g. "Keynote".
	App string `json:"app"`
}

// KeyParams overrides the key sent for an action.
type KeyParams struct {
	Key       string   `json:"key"`
	KeyCode   int      `json:"key_code"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// keySpec is a key code with optional modifiers.
type keySpec struct {
	code      int
	modifiers []string
}

// defaultKeys maps slideshow actions to the keys most presentation apps
// understand.
var defaultKeys = map[string]keySpec{
	"next":     {code: 124}, // right arrow
	"previous": {code: 123}, // left arrow
	"play":     {code: 35, modifiers: []string{"command", "option"}}, // option-command-P
	"pause":    {code: 49},  // space
	"pointer":  {code: 37},  // L
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	script, err := buildScript(req)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	if err := runAppleScript(script); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}

	writeSuccessResponse()
}

// buildScript returns the AppleScript for a request.
func buildScript(req Request) (string, error) {
	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return "", fmt.Errorf("failed to parse config: %w", err)
		}
	}

	var params KeyParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return "", fmt.Errorf("failed to parse params: %w", err)
		}
	}

	var body string
	switch req.Action {
	case "acknowledge":
		body = fmt.Sprintf(`display notification "%s" with title "Nritya"`, escape(gestureLabel(req.Gesture)))
		return body, nil
	case "keystroke":
		if params.Key == "" && params.KeyCode == 0 {
			return "", fmt.Errorf("key is required")
		}
		body = keyScript(params)
	default:
		spec, ok := defaultKeys[req.Action]
		if !ok {
			return "", fmt.Errorf("unknown action: %s", req.Action)
		}
		if params.Key == "" && params.KeyCode == 0 {
			params = KeyParams{KeyCode: spec.code, Modifiers: spec.modifiers}
		}
		body = keyScript(params)
	}

	if cfg.App != "" {
		return fmt.Sprintf("tell application \"%s\" to activate\n%s", escape(cfg.App), body), nil
	}
	return body, nil
}

// keyScript generates a System Events key event.
func keyScript(p KeyParams) string {
	var event string
	if p.Key != "" {
		event = fmt.Sprintf(`keystroke "%s"`, escape(p.Key))
	} else {
		event = fmt.Sprintf("key code %d", p.KeyCode)
	}

	var appleModifiers []string
	for _, mod := range p.Modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}
	if len(appleModifiers) > 0 {
		event += fmt.Sprintf(" using {%s}", strings.Join(appleModifiers, ", "))
	}

	return `tell application "System Events" to ` + event
}

func gestureLabel(g string) string {
	if g == "" {
		return "Gesture received"
	}
	return strings.ReplaceAll(strings.ToLower(g), "_", " ")
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// writeErrorResponse writes an error response to stdout.
func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

// writeSuccessResponse writes a success response to stdout.
func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

// runAppleScript executes an AppleScript command and returns any error.
func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
