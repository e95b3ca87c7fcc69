// Package activity describes settings lifecycle events and fans them out to
// hooks supplied by the host.
package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes a settings activity. IDs are plain strings so call sites
// are not coupled to a specific UUID type.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	TenantID       string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string

	// Workspace and Scope locate a persisted override; both are empty for
	// snapshot events.
	Workspace  string
	Scope      string
	SnapshotID string
	Languages  []string
	Keys       []string

	Metadata   map[string]any
	OccurredAt time.Time
}

// Data flattens the settings fields and Metadata into one map. Explicit
// fields win over metadata entries with the same name. Nil when empty.
func (e Event) Data() map[string]any {
	data := make(map[string]any, len(e.Metadata)+6)
	for key, value := range e.Metadata {
		data[key] = value
	}
	for key, value := range map[string]string{
		"workspace":       e.Workspace,
		"scope":           e.Scope,
		"snapshot_id":     e.SnapshotID,
		"definition_code": e.DefinitionCode,
	} {
		if value != "" {
			data[key] = value
		}
	}
	if len(e.Languages) > 0 {
		data["languages"] = append([]string(nil), e.Languages...)
	}
	if len(e.Keys) > 0 {
		data["keys"] = append([]string(nil), e.Keys...)
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// Complete reports whether the event names a verb and an object.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// ActivityHook receives normalized events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether any non-nil hook is present.
func (h Hooks) Enabled() bool {
	for _, hook := range h {
		if hook != nil {
			return true
		}
	}
	return false
}

// Notify normalizes event and forwards it to every hook, joining failures.
// Incomplete events are dropped.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if !h.Enabled() {
		return nil
	}
	normalized := NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims identifiers, deduplicates Languages and Keys, copies
// Metadata and stamps OccurredAt when missing.
func NormalizeEvent(event Event) Event {
	out := event
	for _, field := range []*string{
		&out.Verb, &out.ActorID, &out.UserID, &out.TenantID,
		&out.ObjectType, &out.ObjectID, &out.Channel, &out.DefinitionCode,
		&out.Workspace, &out.Scope, &out.SnapshotID,
	} {
		*field = strings.TrimSpace(*field)
	}
	out.Languages = uniqueStrings(event.Languages)
	out.Keys = uniqueStrings(event.Keys)
	out.Metadata = cloneMap(event.Metadata)
	if out.OccurredAt.IsZero() {
		out.OccurredAt = time.Now()
	}
	return out
}

func uniqueStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
