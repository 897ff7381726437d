// Package controller maps emitted gesture events to presentation commands and
// runs them through the plugin bound to each gesture.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/nritya/internal/gesture"
	"github.com/ayusman/nritya/internal/plugin"
	"github.com/ayusman/nritya/internal/store"
)

// Command is a presentation control verb.
type Command string

const (
	CommandNext        Command = "next"
	CommandPrevious    Command = "previous"
	CommandPlay        Command = "play"
	CommandPause       Command = "pause"
	CommandPointer     Command = "pointer"
	CommandAcknowledge Command = "acknowledge"
)

// DefaultPlugin handles the default bindings.
const DefaultPlugin = "slides"

// Commands is the default gesture to command mapping.
var Commands = map[gesture.Type]Command{
	gesture.SwipeRight: CommandNext,
	gesture.SwipeLeft:  CommandPrevious,
	gesture.OpenPalm:   CommandPlay,
	gesture.ClosedFist: CommandPause,
	gesture.Pointing:   CommandPointer,
	gesture.ThumbUp:    CommandAcknowledge,
}

// CommandFor returns the default command for t.
func CommandFor(t gesture.Type) (Command, bool) {
	c, ok := Commands[t]
	return c, ok
}

var (
	// ErrUnbound is returned when no action is bound to the gesture.
	ErrUnbound = errors.New("no action bound")
	// ErrDisabled is returned when the bound action is switched off.
	ErrDisabled = errors.New("action disabled")
	// ErrUnsupported is returned when the plugin does not declare the action.
	ErrUnsupported = errors.New("action not supported by plugin")
	// ErrActionFailed is returned when the plugin reports failure.
	ErrActionFailed = errors.New("action failed")
)

// Bindings looks up and stores gesture action bindings.
type Bindings interface {
	GetByGesture(t gesture.Type) (*store.Action, error)
	Create(a *store.Action) error
}

// Plugins resolves plugins by name.
type Plugins interface {
	Get(name string) (*plugin.Plugin, error)
}

// Runner executes a plugin request.
type Runner interface {
	ExecuteContext(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// Controller dispatches gesture events to plugins.
type Controller struct {
	bindings Bindings
	plugins  Plugins
	runner   Runner
	wg       sync.WaitGroup
}

// New creates a Controller.
func New(bindings Bindings, plugins Plugins, runner Runner) *Controller {
	return &Controller{
		bindings: bindings,
		plugins:  plugins,
		runner:   runner,
	}
}

// SeedDefaults binds every gesture in Commands that has no binding yet to
// the default plugin. It returns the number of bindings created.
func SeedDefaults(b Bindings) (int, error) {
	created := 0
	for t, cmd := range Commands {
		existing, err := b.GetByGesture(t)
		if err != nil {
			return created, fmt.Errorf("look up binding for %s: %w", t, err)
		}
		if existing != nil {
			continue
		}

		if err := b.Create(&store.Action{
			ID:         uuid.New().String(),
			Gesture:    t,
			PluginName: DefaultPlugin,
			ActionName: string(cmd),
			Enabled:    true,
		}); err != nil {
			return created, fmt.Errorf("bind %s: %w", t, err)
		}
		created++
	}
	return created, nil
}

// Dispatch runs the action bound to ev.Type and returns the plugin response.
func (c *Controller) Dispatch(ctx context.Context, ev gesture.Event) (*plugin.Response, error) {
	action, err := c.bindings.GetByGesture(ev.Type)
	if err != nil {
		return nil, fmt.Errorf("look up binding for %s: %w", ev.Type, err)
	}
	if action == nil {
		return nil, fmt.Errorf("%s: %w", ev.Type, ErrUnbound)
	}
	if !action.Enabled {
		return nil, fmt.Errorf("%s: %w", ev.Type, ErrDisabled)
	}

	p, err := c.plugins.Get(action.PluginName)
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", action.PluginName, err)
	}
	if len(p.Manifest.Actions) > 0 && !p.Manifest.Supports(action.ActionName) {
		return nil, fmt.Errorf("%s/%s: %w", action.PluginName, action.ActionName, ErrUnsupported)
	}

	resp, err := c.runner.ExecuteContext(ctx, p, &plugin.Request{
		Action:     action.ActionName,
		Gesture:    string(ev.Type),
		Confidence: ev.Confidence,
		Source:     string(ev.Source),
		Config:     action.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("execute %s/%s: %w", action.PluginName, action.ActionName, err)
	}
	if !resp.Success {
		return resp, fmt.Errorf("%s/%s: %w: %s", action.PluginName, action.ActionName, ErrActionFailed, resp.Error)
	}
	return resp, nil
}

// Handle dispatches ev in the background so the frame path is not blocked
// by plugin execution. It satisfies gesture.Handler.
func (c *Controller) Handle(ev gesture.Event) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.Dispatch(context.Background(), ev); err != nil {
			if errors.Is(err, ErrUnbound) {
				return
			}
			log.Printf("Dispatch %s failed: %v", ev.Type, err)
			return
		}
		log.Printf("Dispatched %s (%.2f, %s)", ev.Type, ev.Confidence, ev.Source)
	}()
}

// Wait blocks until every dispatch started by Handle has finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}
