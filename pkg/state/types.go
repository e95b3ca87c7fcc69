package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	langopts "github.com/goliatone/go-langopts"
	"github.com/goliatone/go-langopts/pkg/activity"
	"github.com/google/uuid"
)

var (
	ErrETagMismatch   = errors.New("state: etag mismatch")
	ErrNoScopes       = errors.New("state: no scopes stored")
	ErrStoreRequired  = errors.New("state: store is required")
	ErrWorkspaceEmpty = errors.New("state: workspace is required")
)

// Ref identifies the values stored for one scope of one workspace.
type Ref struct {
	Workspace string
	Scope     langopts.Scope
}

// Identifier returns the canonical storage key: "<workspace>/default",
// "<workspace>/global" or "<workspace>/language/<id>".
func (r Ref) Identifier() (string, error) {
	workspace := strings.TrimSpace(r.Workspace)
	if workspace == "" {
		return "", ErrWorkspaceEmpty
	}
	switch r.Scope.Kind {
	case langopts.ScopeDefault, langopts.ScopeGlobal:
		return workspace + "/" + r.Scope.Kind.String(), nil
	case langopts.ScopeLanguage:
		if r.Scope.Language == "" {
			return "", langopts.ErrLanguageRequired
		}
		return workspace + "/language/" + r.Scope.Language, nil
	default:
		return "", fmt.Errorf("%w: %d", langopts.ErrScopeKind, r.Scope.Kind)
	}
}

// Meta is storage-owned metadata used for provenance and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}

// Store loads and saves the values of individual scopes.
type Store interface {
	Load(ctx context.Context, ref Ref) (values langopts.Values, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, values langopts.Values, meta Meta) (Meta, error)
	// Scopes lists the scopes holding values for workspace.
	Scopes(ctx context.Context, workspace string) ([]langopts.Scope, error)
}

// Mutator edits the values of one scope in place.
type Mutator func(values langopts.Values) error

// Builder assembles snapshots from a Store and applies scope edits.
type Builder struct {
	Store Store
	// Hooks receive settings.override.saved after each successful Mutate.
	Hooks   activity.Hooks
	Channel string
	Now     func() time.Time
	NewID   func() string
}

// Snapshot loads every stored scope of workspace into a LayeredSnapshot.
func (b Builder) Snapshot(ctx context.Context, workspace string) (*langopts.LayeredSnapshot, error) {
	if b.Store == nil {
		return nil, ErrStoreRequired
	}
	if strings.TrimSpace(workspace) == "" {
		return nil, ErrWorkspaceEmpty
	}
	scopes, err := b.Store.Scopes(ctx, workspace)
	if err != nil {
		return nil, fmt.Errorf("state: list scopes for %q: %w", workspace, err)
	}

	layers := make([]langopts.Layer, 0, len(scopes))
	for _, scope := range scopes {
		values, meta, ok, err := b.Store.Load(ctx, Ref{Workspace: workspace, Scope: scope})
		if err != nil {
			return nil, fmt.Errorf("state: load %q for scope %q: %w", workspace, scope.Name(), err)
		}
		if !ok {
			continue
		}
		layers = append(layers, langopts.NewLayer(scope, values, langopts.WithSnapshotID(meta.SnapshotID)))
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: workspace %q", ErrNoScopes, workspace)
	}

	snapshot, err := langopts.NewSnapshot(layers...)
	if err != nil {
		return nil, fmt.Errorf("state: snapshot: %w", err)
	}
	return snapshot, nil
}

// Mutate loads the values of ref, applies fn, validates the keys and saves
// the result. A non-empty meta.ETag must match the stored etag. Every save
// gets a fresh etag, and a fresh snapshot id unless meta supplies one.
func (b Builder) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (langopts.Values, Meta, error) {
	if b.Store == nil {
		return nil, Meta{}, ErrStoreRequired
	}
	if _, err := ref.Identifier(); err != nil {
		return nil, Meta{}, err
	}
	if fn == nil {
		return nil, Meta{}, fmt.Errorf("state: mutator is required")
	}

	values, loadedMeta, ok, err := b.Store.Load(ctx, ref)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("state: load %q for scope %q: %w", ref.Workspace, ref.Scope.Name(), err)
	}
	if !ok {
		values = langopts.Values{}
		loadedMeta = Meta{}
	}
	if values == nil {
		values = langopts.Values{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return nil, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	working := values.Clone()
	if err := fn(working); err != nil {
		return nil, loadedMeta, err
	}
	if err := validateValues(working); err != nil {
		return nil, loadedMeta, err
	}

	saveMeta := mergeMeta(loadedMeta, meta)
	saveMeta.ETag = b.newID()
	if meta.SnapshotID == "" {
		saveMeta.SnapshotID = b.newID()
	}
	if meta.UpdatedAt.IsZero() {
		saveMeta.UpdatedAt = b.now()
	}

	savedMeta, err := b.Store.Save(ctx, ref, working, saveMeta)
	if err != nil {
		return nil, loadedMeta, fmt.Errorf("state: save %q for scope %q: %w", ref.Workspace, ref.Scope.Name(), err)
	}

	b.notifySaved(ctx, ref, working, savedMeta)
	return working.Clone(), savedMeta, nil
}

func (b Builder) notifySaved(ctx context.Context, ref Ref, values langopts.Values, meta Meta) {
	emitter := activity.NewEmitter(b.Hooks, activity.Config{Enabled: true, Channel: b.Channel, Source: "state"})
	if !emitter.Enabled() {
		return
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, string(key))
	}
	sort.Strings(keys)
	// Hook failures never undo a completed save.
	_ = emitter.Emit(ctx, activity.BuildOverrideSavedEvent(activity.SettingsEventInput{
		Workspace:  ref.Workspace,
		Scope:      ref.Scope.Name(),
		SnapshotID: meta.SnapshotID,
		Languages:  scopeLanguages(ref.Scope),
		Keys:       keys,
		ETag:       meta.ETag,
		OccurredAt: meta.UpdatedAt,
	}))
}

func scopeLanguages(scope langopts.Scope) []string {
	if scope.Kind != langopts.ScopeLanguage {
		return nil
	}
	return []string{scope.Language}
}

func validateValues(values langopts.Values) error {
	for key := range values {
		if key == langopts.KeyIdentifier || !key.Valid() {
			return fmt.Errorf("%w: %q", langopts.ErrUnknownKey, string(key))
		}
	}
	return nil
}

func (b Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

func (b Builder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return uuid.NewString()
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
