package langopts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-langopts/internal/hydrate"
)

// Settings is the typed view of every resolved key.
type Settings struct {
	Regex               string   `json:"regex"`
	RegexFlags          string   `json:"regexFlags"`
	RegexGroup          int      `json:"regexGroup"`
	MaskChar            string   `json:"maskChar"`
	MaskColor           string   `json:"maskColor"`
	UnfoldedOpacity     float64  `json:"unfoldedOpacity"`
	After               string   `json:"after"`
	SupportedLanguages  []string `json:"supportedLanguages"`
	UnfoldOnLineSelect  bool     `json:"unfoldOnLineSelect"`
	AutoFold            bool     `json:"autoFold"`
	UseGlobal           bool     `json:"useGlobal"`
	TogglePerFile       bool     `json:"togglePerFile"`
	DisableInDiffEditor bool     `json:"disableInDiffEditor"`

	// Language is the scope the values were resolved for, empty for global.
	Language string `json:"language,omitempty"`
}

var settingsDecoder = hydrate.NewDecoder(
	hydrate.WithPreHook[Settings](normalizeSettingsPayload),
	hydrate.WithPostHook[Settings](func(ctx hydrate.Context, s *Settings) error {
		s.Language = ctx.Language
		if s.RegexGroup < 0 {
			return fmt.Errorf("%s must not be negative, got %d", KeyRegexGroup, s.RegexGroup)
		}
		return nil
	}),
)

// Effective decodes every resolved key into Settings. SupportedLanguages
// holds the discovered language set, not just the global list.
func (r *Resolver) Effective() (Settings, error) {
	ref := r.current.Load()
	if ref == nil {
		return Settings{}, ErrNoSnapshot
	}
	payload := map[string]any{}
	for key, value := range r.resolved(ref) {
		payload[string(key)] = value
	}
	payload[string(KeySupportedLanguages)] = r.supportedLanguages(ref)

	return settingsDecoder.Decode(hydrate.Context{
		Language:   r.languageFor(ref.snapshot),
		SnapshotID: ref.id,
	}, payload)
}

// normalizeSettingsPayload coerces values hosts commonly write loosely:
// numeric strings for regexGroup and non-boolean truthy values for flags.
func normalizeSettingsPayload(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	if s, ok := payload[string(KeyRegexGroup)].(string); ok {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", KeyRegexGroup, err)
		}
		payload[string(KeyRegexGroup)] = n
	}
	for _, info := range catalogue {
		if info.Kind != KindBoolean {
			continue
		}
		if value, ok := payload[string(info.Key)]; ok {
			payload[string(info.Key)] = truthy(value)
		}
	}
	return payload, nil
}
