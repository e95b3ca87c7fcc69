package langopts

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewSnapshotRejectsInvalidLayers(t *testing.T) {
	tests := []struct {
		name   string
		layers []Layer
		target error
	}{
		{
			name:   "duplicate global",
			layers: []Layer{NewLayer(GlobalScope(), nil), NewLayer(GlobalScope(), nil)},
			target: ErrDuplicateScope,
		},
		{
			name:   "duplicate language",
			layers: []Layer{NewLayer(LanguageScope("go"), nil), NewLayer(LanguageScope(" go "), nil)},
			target: ErrDuplicateScope,
		},
		{
			name:   "missing language",
			layers: []Layer{NewLayer(LanguageScope(""), nil)},
			target: ErrLanguageRequired,
		},
		{
			name:   "unknown kind",
			layers: []Layer{{Scope: Scope{Kind: ScopeUnknown}}},
			target: ErrScopeKind,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSnapshot(tt.layers...); !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestSnapshotValuesAreDetached(t *testing.T) {
	values := Values{KeySupportedLanguages: []any{"go"}}
	snapshot := mustSnapshot(t, NewLayer(GlobalScope(), values))

	values[KeySupportedLanguages].([]any)[0] = "mutated"
	got, _ := snapshot.Global(KeySupportedLanguages)
	if got.([]any)[0] != "go" {
		t.Fatalf("snapshot must not observe caller mutation, got %v", got)
	}

	got.([]any)[0] = "changed"
	again, _ := snapshot.Global(KeySupportedLanguages)
	if again.([]any)[0] != "go" {
		t.Fatalf("returned values must be copies, got %v", again)
	}
}

func TestSnapshotGlobalFallsBackToDefaults(t *testing.T) {
	snapshot := mustSnapshot(t,
		NewLayer(DefaultScope(), Values{KeyMaskChar: "…", KeyAfter: ""}, WithSnapshotID("defaults")),
		NewLayer(GlobalScope(), Values{KeyMaskChar: "*"}),
	)
	if value, _ := snapshot.Global(KeyMaskChar); value != "*" {
		t.Fatalf("expected global to win, got %v", value)
	}
	if value, ok := snapshot.Global(KeyAfter); !ok || value != "" {
		t.Fatalf("expected default value, got %v (found=%v)", value, ok)
	}
	if snapshot.ID() != "defaults" {
		t.Fatalf("expected default layer id when global has none, got %q", snapshot.ID())
	}
	if _, ok := snapshot.Language("", KeyMaskChar); ok {
		t.Fatalf("empty language must not resolve")
	}
}

func TestSnapshotInspectAndLayers(t *testing.T) {
	snapshot := mustSnapshot(t,
		NewLayer(DefaultScope(), Values{KeyMaskChar: "…"}),
		NewLayer(GlobalScope(), Values{KeyRegex: "x"}),
		NewLayer(LanguageScope("python"), Values{KeyMaskChar: "#"}),
		NewLayer(LanguageScope("go"), Values{KeyMaskChar: "-"}),
	)

	inspection := snapshot.Inspect(KeyMaskChar)
	if !inspection.Default || inspection.Global {
		t.Fatalf("unexpected scope flags %+v", inspection)
	}
	if !reflect.DeepEqual(inspection.Languages, []string{"go", "python"}) {
		t.Fatalf("expected sorted languages, got %v", inspection.Languages)
	}

	layers := snapshot.Layers()
	var names []string
	for _, layer := range layers {
		names = append(names, layer.Scope.Name())
	}
	want := []string{"language:go", "language:python", "global", "default"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestSnapshotTraceMissingLanguageLayer(t *testing.T) {
	snapshot := mustSnapshot(t, NewLayer(GlobalScope(), Values{KeyMaskChar: "*"}))
	trace := snapshot.Trace(KeyMaskChar, "rust")
	if len(trace.Layers) != 2 || trace.Layers[0].Found {
		t.Fatalf("expected empty rust layer before global, got %+v", trace.Layers)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Kind != ScopeGlobal {
		t.Fatalf("expected global winner, got %+v", winner)
	}
}

func TestScopeHelpers(t *testing.T) {
	metadata := map[string]any{"source": "settings.json"}
	scope := LanguageScope("python", WithScopeLabel("Python"), WithScopeMetadata(metadata))
	metadata["source"] = "changed"
	if scope.Metadata["source"] != "settings.json" {
		t.Fatalf("scope metadata must be copied")
	}
	if scope.Priority() <= GlobalScope().Priority() || GlobalScope().Priority() <= DefaultScope().Priority() {
		t.Fatalf("expected language > global > default priorities")
	}
	if ParseScopeKind(" Language ") != ScopeLanguage || ParseScopeKind("other") != ScopeUnknown {
		t.Fatalf("unexpected scope kind parsing")
	}
	text, err := ScopeGlobal.MarshalText()
	if err != nil || string(text) != "global" {
		t.Fatalf("unexpected text %q err=%v", text, err)
	}
	var kind ScopeKind
	if err := kind.UnmarshalText([]byte("default")); err != nil || kind != ScopeDefault {
		t.Fatalf("unexpected kind %v err=%v", kind, err)
	}
}
