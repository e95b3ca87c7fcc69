package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "settings"

// Config controls emission defaults.
type Config struct {
	Enabled bool
	Channel string
	// Source names the component emitting, e.g. "resolver" or "state". It
	// is recorded under the "source" metadata key unless already set.
	Source string
}

// Emitter stamps defaults on events before handing them to Hooks.
type Emitter struct {
	hooks  Hooks
	config Config
}

// NewEmitter builds an emitter. It stays disabled when cfg.Enabled is false
// or hooks holds no usable hook.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	cfg.Channel = strings.TrimSpace(cfg.Channel)
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	cfg.Source = strings.TrimSpace(cfg.Source)
	var usable Hooks
	for _, hook := range hooks {
		if hook != nil {
			usable = append(usable, hook)
		}
	}
	cfg.Enabled = cfg.Enabled && len(usable) > 0
	return &Emitter{hooks: usable, config: cfg}
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.config.Enabled
}

// Channel returns the channel applied to events without one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.config.Channel
}

// Emit applies the default channel and source, then notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.config.Channel
	}
	if e.config.Source != "" {
		if _, ok := event.Metadata["source"]; !ok {
			event.Metadata = cloneMap(event.Metadata)
			if event.Metadata == nil {
				event.Metadata = map[string]any{}
			}
			event.Metadata["source"] = e.config.Source
		}
	}
	return e.hooks.Notify(ctx, event)
}
