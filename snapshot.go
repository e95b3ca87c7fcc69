package langopts

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-langopts/layering"
)

// Snapshot is the host configuration abstraction the resolver reads from.
// Implementations must be safe for concurrent reads and must not expose
// internal state through returned values.
type Snapshot interface {
	// Global returns the language independent value for key, falling back
	// to manifest defaults when the implementation carries them.
	Global(key Key) (any, bool)
	// Language returns the value recorded explicitly for language.
	Language(language string, key Key) (any, bool)
	// Inspect reports which scopes hold an explicit value for key.
	Inspect(key Key) Inspection
}

// Inspection lists the scopes that carry an explicit value for a key.
type Inspection struct {
	Key       Key      `json:"key"`
	Default   bool     `json:"default"`
	Global    bool     `json:"global"`
	Languages []string `json:"languages,omitempty"`
}

// LayeredSnapshot is an immutable Snapshot assembled from scope layers.
type LayeredSnapshot struct {
	defaults  *Layer
	global    *Layer
	languages map[string]Layer
}

var _ Snapshot = (*LayeredSnapshot)(nil)

// NewSnapshot validates layers and copies them into a snapshot. At most one
// default and one global layer are accepted, and language layers must name
// distinct languages.
func NewSnapshot(layers ...Layer) (*LayeredSnapshot, error) {
	snapshot := &LayeredSnapshot{languages: map[string]Layer{}}
	for _, layer := range layers {
		layer := cloneLayer(layer)
		switch layer.Scope.Kind {
		case ScopeDefault:
			if snapshot.defaults != nil {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateScope, layer.Scope.Name())
			}
			snapshot.defaults = &layer
		case ScopeGlobal:
			if snapshot.global != nil {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateScope, layer.Scope.Name())
			}
			snapshot.global = &layer
		case ScopeLanguage:
			if layer.Scope.Language == "" {
				return nil, ErrLanguageRequired
			}
			if _, exists := snapshot.languages[layer.Scope.Language]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateScope, layer.Scope.Name())
			}
			snapshot.languages[layer.Scope.Language] = layer
		default:
			return nil, fmt.Errorf("%w: %d", ErrScopeKind, layer.Scope.Kind)
		}
	}
	return snapshot, nil
}

// ID returns the snapshot identifier recorded on the global layer, or on
// the default layer when no global layer exists.
func (s *LayeredSnapshot) ID() string {
	if s == nil {
		return ""
	}
	if s.global != nil && s.global.SnapshotID != "" {
		return s.global.SnapshotID
	}
	if s.defaults != nil {
		return s.defaults.SnapshotID
	}
	return ""
}

func (s *LayeredSnapshot) Global(key Key) (any, bool) {
	if s == nil {
		return nil, false
	}
	if value, ok := lookupLayer(s.global, key); ok {
		return value, true
	}
	return lookupLayer(s.defaults, key)
}

func (s *LayeredSnapshot) Language(language string, key Key) (any, bool) {
	if s == nil || language == "" {
		return nil, false
	}
	layer, ok := s.languages[language]
	if !ok {
		return nil, false
	}
	return lookupLayer(&layer, key)
}

func (s *LayeredSnapshot) Inspect(key Key) Inspection {
	inspection := Inspection{Key: key}
	if s == nil {
		return inspection
	}
	_, inspection.Default = lookupLayer(s.defaults, key)
	_, inspection.Global = lookupLayer(s.global, key)
	for language, layer := range s.languages {
		if _, ok := layer.Values[key]; ok {
			inspection.Languages = append(inspection.Languages, language)
		}
	}
	sort.Strings(inspection.Languages)
	return inspection
}

// Languages returns every language that has a layer, sorted.
func (s *LayeredSnapshot) Languages() []string {
	if s == nil || len(s.languages) == 0 {
		return nil
	}
	out := make([]string, 0, len(s.languages))
	for language := range s.languages {
		out = append(out, language)
	}
	sort.Strings(out)
	return out
}

// Layers returns detached copies of the layers ordered strongest first.
func (s *LayeredSnapshot) Layers() []Layer {
	if s == nil {
		return nil
	}
	var out []Layer
	for _, language := range s.Languages() {
		out = append(out, cloneLayer(s.languages[language]))
	}
	if s.global != nil {
		out = append(out, cloneLayer(*s.global))
	}
	if s.defaults != nil {
		out = append(out, cloneLayer(*s.defaults))
	}
	return out
}

// Trace records how key resolves for language, strongest layer first. An
// empty language skips the language scope.
func (s *LayeredSnapshot) Trace(key Key, language string) Trace {
	trace := Trace{Key: key, Language: language}
	if s == nil {
		return trace
	}
	if language != "" {
		layer, ok := s.languages[language]
		if !ok {
			layer = Layer{Scope: LanguageScope(language)}
		}
		trace.addOverride(&layer, key)
	}
	if s.global != nil {
		trace.add(s.global, key)
	}
	if s.defaults != nil {
		trace.add(s.defaults, key)
	}
	return trace
}

func lookupLayer(layer *Layer, key Key) (any, bool) {
	if layer == nil || layer.Values == nil {
		return nil, false
	}
	value, ok := layer.Values[key]
	if !ok {
		return nil, false
	}
	return layering.Clone(value), true
}
