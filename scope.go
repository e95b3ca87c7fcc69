package langopts

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-langopts/layering"
)

// ScopeKind identifies where a value was recorded. Stronger kinds win.
type ScopeKind int

const (
	ScopeUnknown ScopeKind = iota
	// ScopeDefault holds values contributed by the extension manifest.
	ScopeDefault
	// ScopeGlobal holds values not tied to any language identifier.
	ScopeGlobal
	// ScopeLanguage holds values recorded for one language identifier.
	ScopeLanguage
)

const (
	ScopePriorityDefault  = 100
	ScopePriorityGlobal   = 200
	ScopePriorityLanguage = 300
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeDefault:
		return "default"
	case ScopeGlobal:
		return "global"
	case ScopeLanguage:
		return "language"
	default:
		return "unknown"
	}
}

// ParseScopeKind converts a textual kind. Unrecognised values map to
// ScopeUnknown.
func ParseScopeKind(value string) ScopeKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "default":
		return ScopeDefault
	case "global":
		return ScopeGlobal
	case "language":
		return ScopeLanguage
	default:
		return ScopeUnknown
	}
}

func (k ScopeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *ScopeKind) UnmarshalText(text []byte) error {
	*k = ParseScopeKind(string(text))
	return nil
}

// Scope names a bucket of settings values.
type Scope struct {
	Kind     ScopeKind      `json:"kind"`
	Language string         `json:"language,omitempty"`
	Label    string         `json:"label,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ScopeOption configures optional Scope metadata.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// WithScopeMetadata attaches metadata to the scope. The map is copied so
// later mutation by the caller has no effect.
func WithScopeMetadata(metadata map[string]any) ScopeOption {
	return func(s *Scope) {
		s.Metadata = copyMetadata(metadata)
	}
}

// DefaultScope builds the scope for manifest defaults.
func DefaultScope(opts ...ScopeOption) Scope {
	return newScope(ScopeDefault, "", opts)
}

// GlobalScope builds the scope for language independent values.
func GlobalScope(opts ...ScopeOption) Scope {
	return newScope(ScopeGlobal, "", opts)
}

// LanguageScope builds the scope for values recorded against language.
// Validation is deferred to snapshot construction.
func LanguageScope(language string, opts ...ScopeOption) Scope {
	return newScope(ScopeLanguage, strings.TrimSpace(language), opts)
}

func newScope(kind ScopeKind, language string, opts []ScopeOption) Scope {
	scope := Scope{Kind: kind, Language: language}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// Name returns a stable identifier: "default", "global" or "language:<id>".
func (s Scope) Name() string {
	if s.Kind == ScopeLanguage {
		return fmt.Sprintf("language:%s", s.Language)
	}
	return s.Kind.String()
}

// Priority orders scopes; higher numbers win.
func (s Scope) Priority() int {
	switch s.Kind {
	case ScopeLanguage:
		return ScopePriorityLanguage
	case ScopeGlobal:
		return ScopePriorityGlobal
	case ScopeDefault:
		return ScopePriorityDefault
	default:
		return 0
	}
}

func (s Scope) clone() Scope {
	out := s
	out.Metadata = copyMetadata(s.Metadata)
	return out
}

func (s Scope) isZero() bool {
	return s.Kind == ScopeUnknown && s.Language == "" && s.Label == "" && len(s.Metadata) == 0
}

// Values maps keys to the raw values recorded in one scope.
type Values map[Key]any

// Clone returns a deep copy of v.
func (v Values) Clone() Values {
	if v == nil {
		return nil
	}
	return layering.Clone(v)
}

// Layer pairs a scope with the values captured for it.
type Layer struct {
	Scope      Scope
	Values     Values
	SnapshotID string
}

// LayerOption configures optional layer metadata.
type LayerOption func(*Layer)

// WithSnapshotID records the identifier of the load that produced the layer.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer builds a Layer holding detached copies of scope and values.
func NewLayer(scope Scope, values Values, opts ...LayerOption) Layer {
	layer := Layer{
		Scope:  scope.clone(),
		Values: values.Clone(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&layer)
		}
	}
	return layer
}

func cloneLayer(layer Layer) Layer {
	return Layer{
		Scope:      layer.Scope.clone(),
		Values:     layer.Values.Clone(),
		SnapshotID: layer.SnapshotID,
	}
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
