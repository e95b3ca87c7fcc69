package activity

import (
	"strings"
	"time"
)

// Verbs emitted for settings lifecycle events.
const (
	VerbSettingsUpdated = "settings.updated"
	VerbSettingsCleared = "settings.cleared"
	VerbOverrideSaved   = "settings.override.saved"
)

// Object types carried by settings events.
const (
	ObjectSnapshot = "settings.snapshot"
	ObjectScope    = "settings.scope"
)

// SettingsEventInput carries the fields shared by settings events.
type SettingsEventInput struct {
	ActorID            string
	UserID             string
	TenantID           string
	Workspace          string
	Channel            string
	SnapshotID         string
	PreviousSnapshotID string
	Languages          []string
	Scope              string
	Keys               []string
	ETag               string
	Metadata           map[string]any
	OccurredAt         time.Time
}

// BuildSettingsUpdatedEvent describes a snapshot replacing the previous one.
// The object is the new snapshot.
func BuildSettingsUpdatedEvent(input SettingsEventInput) Event {
	event := input.event(VerbSettingsUpdated, ObjectSnapshot)
	event.ObjectID = firstNonEmpty(input.SnapshotID, ObjectSnapshot)
	return event
}

// BuildSettingsClearedEvent describes the snapshot being dropped. The object
// is the snapshot that was held.
func BuildSettingsClearedEvent(input SettingsEventInput) Event {
	event := input.event(VerbSettingsCleared, ObjectSnapshot)
	event.ObjectID = firstNonEmpty(input.PreviousSnapshotID, input.SnapshotID, ObjectSnapshot)
	return event
}

// BuildOverrideSavedEvent describes one scope being persisted. The object is
// "<workspace>/<scope>".
func BuildOverrideSavedEvent(input SettingsEventInput) Event {
	event := input.event(VerbOverrideSaved, ObjectScope)
	scoped := strings.TrimSpace(input.Scope)
	if workspace := strings.TrimSpace(input.Workspace); workspace != "" && scoped != "" {
		scoped = workspace + "/" + scoped
	}
	event.ObjectID = firstNonEmpty(scoped, input.SnapshotID, ObjectScope)
	return event
}

func (input SettingsEventInput) event(verb, objectType string) Event {
	metadata := cloneMap(input.Metadata)
	extra := map[string]string{
		"previous_snapshot_id": input.PreviousSnapshotID,
		"etag":                 input.ETag,
	}
	for key, value := range extra {
		if value = strings.TrimSpace(value); value == "" {
			continue
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	return Event{
		Verb:       verb,
		ActorID:    input.ActorID,
		UserID:     input.UserID,
		TenantID:   input.TenantID,
		ObjectType: objectType,
		Channel:    input.Channel,
		Workspace:  input.Workspace,
		Scope:      input.Scope,
		SnapshotID: input.SnapshotID,
		Languages:  append([]string(nil), input.Languages...),
		Keys:       append([]string(nil), input.Keys...),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
