package langopts

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-langopts/pkg/activity"
)

// Resolver answers settings lookups against the snapshot most recently
// delivered by the host. Construct one per host session and share it with
// every consumer; all methods are safe for concurrent use.
type Resolver struct {
	cfg      resolverConfig
	current  atomic.Pointer[snapshotRef]
	emitter  *activity.Emitter
	patterns *patternCache

	evalMu    sync.Mutex
	evaluator Evaluator
}

type snapshotRef struct {
	snapshot  Snapshot
	id        string
	updatedAt time.Time
}

// NewResolver builds a Resolver with no snapshot loaded.
func NewResolver(opts ...Option) *Resolver {
	cfg := applyOptions(opts)
	return &Resolver{
		cfg: cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: true,
			Channel: cfg.activityChannel,
			Source:  "resolver",
		}),
		patterns:  newPatternCache(defaultPatternCacheSize),
		evaluator: cfg.evaluator,
	}
}

// Update replaces the held snapshot. Passing nil clears it. The swap is a
// single atomic store, so concurrent readers observe either the previous or
// the new snapshot in full.
func (r *Resolver) Update(snapshot Snapshot) {
	var next *snapshotRef
	if snapshot != nil {
		next = &snapshotRef{
			snapshot:  snapshot,
			id:        snapshotID(snapshot),
			updatedAt: r.cfg.now(),
		}
	}
	previous := r.current.Swap(next)

	event := LogEvent{Operation: OpUpdate, Found: next != nil}
	if next != nil {
		event.SnapshotID = next.id
	}
	r.cfg.logger.Log(event)
	r.notifyUpdated(previous, next)
}

// Snapshot returns the snapshot currently held, or nil.
func (r *Resolver) Snapshot() Snapshot {
	if ref := r.current.Load(); ref != nil {
		return ref.snapshot
	}
	return nil
}

// UpdatedAt reports when the current snapshot was installed.
func (r *Resolver) UpdatedAt() (time.Time, bool) {
	if ref := r.current.Load(); ref != nil {
		return ref.updatedAt, true
	}
	return time.Time{}, false
}

// ActiveLanguage returns the language of the active document, if any.
func (r *Resolver) ActiveLanguage() (string, bool) {
	language, ok := r.cfg.documents.ActiveLanguage()
	if !ok || language == "" {
		return "", false
	}
	return language, true
}

// UseGlobal reports whether the global useGlobal setting is truthy.
func (r *Resolver) UseGlobal() bool {
	ref := r.current.Load()
	if ref == nil {
		return false
	}
	return useGlobal(ref.snapshot)
}

// Get resolves key. When useGlobal is truthy only the global scope is read.
// Otherwise the active document's language scope is tried first and the
// global scope is the fallback; a null override falls through as well. A key
// set nowhere yields (nil, false).
func (r *Resolver) Get(key Key) (any, bool) {
	return r.get(r.current.Load(), key)
}

// get resolves key against ref only. Public readers load ref once per call
// and pass it down.
func (r *Resolver) get(ref *snapshotRef, key Key) (any, bool) {
	if ref == nil {
		r.cfg.logger.Log(LogEvent{Operation: OpGet, Key: key, Err: ErrNoSnapshot})
		return nil, false
	}
	language := r.languageFor(ref.snapshot)
	value, scope, found := resolve(ref.snapshot, language, key)
	r.cfg.logger.Log(LogEvent{
		Operation:  OpGet,
		Key:        key,
		Language:   language,
		Scope:      scope,
		SnapshotID: ref.id,
		Found:      found,
	})
	return value, found
}

func resolve(snapshot Snapshot, language string, key Key) (any, string, bool) {
	if language != "" {
		if value, ok := snapshot.Language(language, key); ok && value != nil {
			return value, LanguageScope(language).Name(), true
		}
	}
	value, ok := snapshot.Global(key)
	if !ok {
		return nil, "", false
	}
	return value, GlobalScope().Name(), true
}

// languageFor returns the language scope consulted for snapshot, empty when
// useGlobal is set or no document is active.
func (r *Resolver) languageFor(snapshot Snapshot) string {
	if useGlobal(snapshot) {
		return ""
	}
	language, _ := r.ActiveLanguage()
	return language
}

func useGlobal(snapshot Snapshot) bool {
	value, ok := snapshot.Global(KeyUseGlobal)
	return ok && truthy(value)
}

// Lookup resolves key and converts the value to T. The boolean reports
// presence; a present value of the wrong shape returns a *TypeError.
func Lookup[T any](r *Resolver, key Key) (T, bool, error) {
	return lookupIn[T](r, r.current.Load(), key)
}

func lookupIn[T any](r *Resolver, ref *snapshotRef, key Key) (T, bool, error) {
	var zero T
	raw, ok := r.get(ref, key)
	if !ok {
		return zero, false, nil
	}
	value, err := convertValue[T](key, raw)
	if err != nil {
		return zero, true, err
	}
	return value, true, nil
}

// SupportedLanguages unions the global supportedLanguages list with every
// language that overrides any key other than the section identifier and
// supportedLanguages itself. Global entries come first in list order,
// discovered languages follow sorted; duplicates are dropped.
func (r *Resolver) SupportedLanguages() []string {
	return r.supportedLanguages(r.current.Load())
}

func (r *Resolver) supportedLanguages(ref *snapshotRef) []string {
	if ref == nil {
		return nil
	}
	seen := map[string]struct{}{}
	var out []string
	add := func(language string) bool {
		if language == "" {
			return false
		}
		if _, ok := seen[language]; ok {
			return false
		}
		seen[language] = struct{}{}
		return true
	}

	if raw, ok := ref.snapshot.Global(KeySupportedLanguages); ok {
		list, err := toStrings(KeySupportedLanguages, raw)
		if err != nil {
			r.cfg.logger.Log(LogEvent{Operation: OpLanguages, Key: KeySupportedLanguages, SnapshotID: ref.id, Found: true, Err: err})
		}
		for _, language := range list {
			if add(language) {
				out = append(out, language)
			}
		}
	}

	var discovered []string
	for _, key := range discoveryKeys() {
		for _, language := range ref.snapshot.Inspect(key).Languages {
			if add(language) {
				discovered = append(discovered, language)
			}
		}
	}
	sort.Strings(discovered)
	out = append(out, discovered...)

	r.cfg.logger.Log(LogEvent{Operation: OpLanguages, SnapshotID: ref.id, Found: len(out) > 0})
	return out
}

// Regex compiles the resolved regex and regexFlags values. Absent values
// compile as the empty pattern and no flags.
func (r *Resolver) Regex() (*Pattern, error) {
	ref := r.current.Load()
	source, flags, err := r.patternInputs(ref)
	if err != nil {
		r.cfg.logger.Log(LogEvent{Operation: OpRegex, Key: KeyRegex, Err: err})
		return nil, err
	}
	pattern, err := r.patterns.compile(source, flags)
	event := LogEvent{Operation: OpRegex, Key: KeyRegex, Found: err == nil, Err: err}
	if ref != nil {
		event.Language = r.languageFor(ref.snapshot)
		event.SnapshotID = ref.id
	}
	r.cfg.logger.Log(event)
	if err != nil {
		return nil, err
	}
	return pattern, nil
}

// patternInputs reads both pattern keys from the same snapshot.
func (r *Resolver) patternInputs(ref *snapshotRef) (string, string, error) {
	source, _, err := lookupIn[string](r, ref, KeyRegex)
	if err != nil {
		raw, _ := r.get(ref, KeyRegex)
		return "", "", &PatternError{Err: err, Pattern: describeRaw(raw)}
	}
	flags, _, err := lookupIn[string](r, ref, KeyRegexFlags)
	if err != nil {
		raw, _ := r.get(ref, KeyRegexFlags)
		return "", "", &PatternError{Pattern: source, Flags: describeRaw(raw), Err: err}
	}
	return source, flags, nil
}

// Trace reports the scopes Get consults for key and what each holds.
func (r *Resolver) Trace(key Key) Trace {
	ref := r.current.Load()
	if ref == nil {
		return Trace{Key: key}
	}
	language := r.languageFor(ref.snapshot)
	if tracer, ok := ref.snapshot.(interface {
		Trace(Key, string) Trace
	}); ok {
		return tracer.Trace(key, language)
	}

	trace := Trace{Key: key, Language: language}
	if language != "" {
		value, found := ref.snapshot.Language(language, key)
		trace.Layers = append(trace.Layers, Provenance{Scope: LanguageScope(language), SnapshotID: ref.id, Value: value, Found: found && value != nil})
	}
	value, found := ref.snapshot.Global(key)
	trace.Layers = append(trace.Layers, Provenance{Scope: GlobalScope(), SnapshotID: ref.id, Value: value, Found: found})
	return trace
}

// Resolved returns every key that currently resolves to a value.
func (r *Resolver) Resolved() map[Key]any {
	return r.resolved(r.current.Load())
}

func (r *Resolver) resolved(ref *snapshotRef) map[Key]any {
	out := map[Key]any{}
	if ref == nil {
		return out
	}
	for _, key := range Keys() {
		if key == KeyIdentifier {
			continue
		}
		if value, ok := r.get(ref, key); ok {
			out[key] = value
		}
	}
	return out
}

func (r *Resolver) notifyUpdated(previous, next *snapshotRef) {
	if !r.emitter.Enabled() {
		return
	}
	input := activity.SettingsEventInput{OccurredAt: r.cfg.now()}
	if previous != nil {
		input.PreviousSnapshotID = previous.id
	}
	if next != nil {
		input.SnapshotID = next.id
		input.Languages = r.supportedLanguages(next)
	}
	var event activity.Event
	if next == nil {
		event = activity.BuildSettingsClearedEvent(input)
	} else {
		event = activity.BuildSettingsUpdatedEvent(input)
	}
	if err := r.emitter.Emit(context.Background(), event); err != nil {
		r.cfg.logger.Log(LogEvent{Operation: OpNotify, SnapshotID: input.SnapshotID, Err: err})
	}
}

func snapshotID(snapshot Snapshot) string {
	if identified, ok := snapshot.(interface{ ID() string }); ok {
		return identified.ID()
	}
	return ""
}

func describeRaw(raw any) string {
	if s, ok := raw.(string); ok {
		return s
	}
	if raw == nil {
		return ""
	}
	return "<" + typeName(raw) + ">"
}
