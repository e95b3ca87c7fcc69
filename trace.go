package langopts

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-langopts/layering"
)

// Trace lists the scopes consulted for one key, strongest first.
type Trace struct {
	Key      Key          `json:"key"`
	Language string       `json:"language,omitempty"`
	Layers   []Provenance `json:"layers"`
}

// Provenance is what a single scope held for the traced key.
type Provenance struct {
	Scope      Scope  `json:"scope"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	Value      any    `json:"value,omitempty"`
	Found      bool   `json:"found"`
}

func (t *Trace) add(layer *Layer, key Key) {
	entry := Provenance{Scope: layer.Scope.clone(), SnapshotID: layer.SnapshotID}
	entry.Value, entry.Found = layer.Values[key]
	if entry.Found {
		entry.Value = layering.Clone(entry.Value)
	}
	t.Layers = append(t.Layers, entry)
}

// addOverride records a language layer. A null override is reported as
// not found since resolution falls through it.
func (t *Trace) addOverride(layer *Layer, key Key) {
	t.add(layer, key)
	if last := &t.Layers[len(t.Layers)-1]; last.Found && last.Value == nil {
		last.Found = false
	}
}

// Winner returns the first layer that holds a value.
func (t Trace) Winner() (Provenance, bool) {
	if i := t.winnerIndex(); i >= 0 {
		return t.Layers[i], true
	}
	return Provenance{}, false
}

// Shadowed returns the layers that hold a value but lose to the winner.
func (t Trace) Shadowed() []Provenance {
	i := t.winnerIndex()
	if i < 0 {
		return nil
	}
	var out []Provenance
	for _, entry := range t.Layers[i+1:] {
		if entry.Found {
			out = append(out, entry)
		}
	}
	return out
}

func (t Trace) winnerIndex() int {
	for i, entry := range t.Layers {
		if entry.Found {
			return i
		}
	}
	return -1
}

// String renders one line per layer, marking the winner with "*".
func (t Trace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s", t.Key)
	if t.Language != "" {
		fmt.Fprintf(&b, " (%s)", t.Language)
	}
	winner := t.winnerIndex()
	for i, entry := range t.Layers {
		mark := " "
		if i == winner {
			mark = "*"
		}
		value := "-"
		if entry.Found {
			value = fmt.Sprintf("%v", entry.Value)
		}
		fmt.Fprintf(&b, "\n%s %-16s %s", mark, entry.Scope.Name(), value)
	}
	return b.String()
}

func (t Trace) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// TraceFromJSON decodes a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	var trace Trace
	err := json.Unmarshal(payload, &trace)
	return trace, err
}
