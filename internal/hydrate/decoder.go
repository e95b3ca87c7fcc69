// Package hydrate decodes resolved settings maps into typed structs.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-langopts/layering"
)

// Context identifies the resolution a payload came from.
type Context struct {
	Language   string
	SnapshotID string
}

func (c Context) String() string {
	language := c.Language
	if language == "" {
		language = "<global>"
	}
	if c.SnapshotID == "" {
		return language
	}
	return language + "@" + c.SnapshotID
}

// Stage names the step of Decode that failed.
type Stage string

const (
	StagePreHook  Stage = "pre-hook"
	StageEncode   Stage = "encode"
	StageDecode   Stage = "decode"
	StagePostHook Stage = "post-hook"
)

// Error reports a failed Decode with the stage and context it failed in.
type Error struct {
	Stage   Stage
	Context Context
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hydrate: %s for %s failed: %v", e.Stage, e.Context, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PreHook rewrites the payload before decoding. Returning a nil map keeps
// the current payload.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder turns settings payloads into T through encoding/json, so T's
// json tags decide the mapping.
type Decoder[T any] struct {
	pre       []PreHook
	post      []PostHook[T]
	useNumber bool
	strict    bool
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithUseNumber decodes numbers held in interface fields as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.useNumber = true }
}

// WithDisallowUnknownFields fails on payload keys T has no field for.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.strict = true }
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T. Hooks see a deep copy, never payload
// itself; a nil payload decodes as an empty object. Failures are *Error.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var result T
	fail := func(stage Stage, err error) (T, error) {
		var zero T
		return zero, &Error{Stage: stage, Context: ctx, Err: err}
	}

	current := layering.Clone(payload)
	if current == nil {
		current = map[string]any{}
	}
	for _, hook := range d.pre {
		next, err := hook(ctx, current)
		if err != nil {
			return fail(StagePreHook, err)
		}
		if next != nil {
			current = next
		}
	}

	encoded, err := json.Marshal(current)
	if err != nil {
		return fail(StageEncode, err)
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	if d.useNumber {
		dec.UseNumber()
	}
	if d.strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&result); err != nil {
		return fail(StageDecode, err)
	}

	for _, hook := range d.post {
		if err := hook(ctx, &result); err != nil {
			return fail(StagePostHook, err)
		}
	}
	return result, nil
}
