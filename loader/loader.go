// Package loader reads editor settings files into a langopts snapshot.
//
// Files use the editor convention: global values live under the
// "inlineFold" section, written either dotted ("inlineFold.regex") or
// nested, and language overrides live in bracketed sections such as
// "[go]" or "[javascript][typescript]". YAML and JSON are both accepted.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	langopts "github.com/goliatone/go-langopts"
)

// ErrNoFiles is returned when Load is called without any settings file.
var ErrNoFiles = errors.New("loader: no settings files given")

var languageSection = regexp.MustCompile(`^((?:\[[^\[\]]+\])+)\.(.+)$`)

// Loader reads settings files. The zero value is not usable; call New.
type Loader struct {
	defaults    string
	skipMissing bool
	logger      *zap.Logger
	newID       func() string
}

// Option configures a Loader.
type Option func(*Loader)

// WithDefaultsFile loads path as the default scope, weaker than every
// settings file.
func WithDefaultsFile(path string) Option {
	return func(l *Loader) {
		l.defaults = path
	}
}

// WithSkipMissing ignores settings files that do not exist.
func WithSkipMissing() Option {
	return func(l *Loader) {
		l.skipMissing = true
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithIDGenerator overrides how snapshot ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(l *Loader) {
		if fn != nil {
			l.newID = fn
		}
	}
}

// New builds a Loader.
func New(opts ...Option) *Loader {
	l := &Loader{
		logger: zap.NewNop(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Load reads paths with the default loader.
func Load(paths ...string) (*langopts.LayeredSnapshot, error) {
	return New().Load(paths...)
}

// Load reads paths weakest first, so later files override earlier ones key
// by key, and returns a snapshot stamped with a fresh id.
func (l *Loader) Load(paths ...string) (*langopts.LayeredSnapshot, error) {
	if len(paths) == 0 && l.defaults == "" {
		return nil, ErrNoFiles
	}
	id := l.newID()

	var layers []langopts.Layer
	merged := newDocument()
	if l.defaults != "" {
		doc, err := l.readFile(l.defaults)
		if err != nil {
			return nil, err
		}
		layers = append(layers, langopts.NewLayer(
			langopts.DefaultScope(langopts.WithScopeMetadata(map[string]any{"sources": []string{l.defaults}})),
			doc.global,
			langopts.WithSnapshotID(id),
		))
		// Language sections of the defaults file seed the language layers.
		doc.global = nil
		merged.overlay(doc)
	}

	var sources []string
	for _, path := range paths {
		doc, err := l.readFile(path)
		if err != nil {
			if l.skipMissing && errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("settings file missing, skipped", zap.String("path", path))
				continue
			}
			return nil, err
		}
		sources = append(sources, path)
		merged.overlay(doc)
	}

	if len(sources) > 0 || len(merged.global) > 0 {
		layers = append(layers, langopts.NewLayer(
			langopts.GlobalScope(langopts.WithScopeMetadata(map[string]any{"sources": sources})),
			merged.global,
			langopts.WithSnapshotID(id),
		))
	}
	for _, language := range merged.sortedLanguages() {
		layers = append(layers, langopts.NewLayer(
			langopts.LanguageScope(language),
			merged.languages[language],
			langopts.WithSnapshotID(id),
		))
	}

	snapshot, err := langopts.NewSnapshot(layers...)
	if err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	l.logger.Debug("settings loaded",
		zap.String("snapshot_id", id),
		zap.Strings("sources", sources),
		zap.Int("languages", len(merged.languages)),
	)
	return snapshot, nil
}

type document struct {
	global    langopts.Values
	languages map[string]langopts.Values
}

func newDocument() *document {
	return &document{global: langopts.Values{}, languages: map[string]langopts.Values{}}
}

func (d *document) overlay(other *document) {
	for key, value := range other.global {
		d.global[key] = value
	}
	for language, values := range other.languages {
		target, ok := d.languages[language]
		if !ok {
			target = langopts.Values{}
			d.languages[language] = target
		}
		for key, value := range values {
			target[key] = value
		}
	}
}

func (d *document) sortedLanguages() []string {
	out := make([]string, 0, len(d.languages))
	for language := range d.languages {
		out = append(out, language)
	}
	sort.Strings(out)
	return out
}

func (l *Loader) readFile(path string) (*document, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	doc := newDocument()
	for flat, value := range k.All() {
		l.assign(doc, path, flat, value)
	}
	l.logger.Debug("settings file read",
		zap.String("path", path),
		zap.Int("global_keys", len(doc.global)),
		zap.Int("languages", len(doc.languages)),
	)
	return doc, nil
}

func (l *Loader) assign(doc *document, path, flat string, value any) {
	if match := languageSection.FindStringSubmatch(flat); match != nil {
		key, ok := l.sectionKey(path, match[2])
		if !ok {
			return
		}
		for _, language := range splitLanguages(match[1]) {
			values, exists := doc.languages[language]
			if !exists {
				values = langopts.Values{}
				doc.languages[language] = values
			}
			values[key] = value
		}
		return
	}
	if key, ok := l.sectionKey(path, flat); ok {
		doc.global[key] = value
	}
}

// sectionKey maps "inlineFold.<key>" to a Key. Paths outside the section
// are ignored silently; unknown keys inside it are logged.
func (l *Loader) sectionKey(path, flat string) (langopts.Key, bool) {
	prefix := langopts.KeyIdentifier.String() + "."
	if !strings.HasPrefix(flat, prefix) {
		return "", false
	}
	key, err := langopts.ParseKey(flat)
	if err == nil && key == langopts.KeyIdentifier {
		err = langopts.ErrUnknownKey
	}
	if err != nil {
		l.logger.Warn("unknown settings key ignored", zap.String("path", path), zap.String("key", flat))
		return "", false
	}
	return key, true
}

// splitLanguages turns "[a][b]" into ["a", "b"].
func splitLanguages(section string) []string {
	parts := strings.Split(strings.Trim(section, "[]"), "][")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
