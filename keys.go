package langopts

import (
	"fmt"
	"strings"
)

// Key identifies a single setting within the extension's configuration
// section. The set is closed; use ParseKey to validate external input.
type Key string

const (
	// KeyIdentifier is the configuration section that owns every other key.
	KeyIdentifier          Key = "inlineFold"
	KeyRegex               Key = "regex"
	KeyRegexFlags          Key = "regexFlags"
	KeyRegexGroup          Key = "regexGroup"
	KeyMaskChar            Key = "maskChar"
	KeyMaskColor           Key = "maskColor"
	KeyUnfoldedOpacity     Key = "unfoldedOpacity"
	KeyAfter               Key = "after"
	KeySupportedLanguages  Key = "supportedLanguages"
	KeyUnfoldOnLineSelect  Key = "unfoldOnLineSelect"
	KeyAutoFold            Key = "autoFold"
	KeyUseGlobal           Key = "useGlobal"
	KeyTogglePerFile       Key = "togglePerFile"
	KeyDisableInDiffEditor Key = "disableInDiffEditor"
)

// Kind describes the JSON shape a key is expected to hold.
type Kind string

const (
	KindString      Kind = "string"
	KindBoolean     Kind = "boolean"
	KindNumber      Kind = "number"
	KindStringArray Kind = "array"
	KindSection     Kind = "object"
)

// KeyInfo is the catalogue entry for a key.
type KeyInfo struct {
	Key         Key
	Kind        Kind
	Description string
	// LanguageOverridable reports whether a per-language value takes effect
	// during resolution.
	LanguageOverridable bool
}

var catalogue = []KeyInfo{
	{Key: KeyIdentifier, Kind: KindSection, Description: "Configuration section owning every setting."},
	{Key: KeyRegex, Kind: KindString, Description: "Pattern selecting the text to fold.", LanguageOverridable: true},
	{Key: KeyRegexFlags, Kind: KindString, Description: "Flags applied to the fold pattern.", LanguageOverridable: true},
	{Key: KeyRegexGroup, Kind: KindNumber, Description: "Capture group that is folded.", LanguageOverridable: true},
	{Key: KeyMaskChar, Kind: KindString, Description: "Text rendered in place of folded content.", LanguageOverridable: true},
	{Key: KeyMaskColor, Kind: KindString, Description: "Color of the mask text.", LanguageOverridable: true},
	{Key: KeyUnfoldedOpacity, Kind: KindNumber, Description: "Opacity of unfolded content.", LanguageOverridable: true},
	{Key: KeyAfter, Kind: KindString, Description: "Text appended after the mask.", LanguageOverridable: true},
	{Key: KeySupportedLanguages, Kind: KindStringArray, Description: "Language identifiers folding is enabled for."},
	{Key: KeyUnfoldOnLineSelect, Kind: KindBoolean, Description: "Unfold every match on a selected line.", LanguageOverridable: true},
	{Key: KeyAutoFold, Kind: KindBoolean, Description: "Fold automatically when a document opens.", LanguageOverridable: true},
	{Key: KeyUseGlobal, Kind: KindBoolean, Description: "Ignore per-language values and read global settings only."},
	{Key: KeyTogglePerFile, Kind: KindBoolean, Description: "Keep the fold toggle state per file.", LanguageOverridable: true},
	{Key: KeyDisableInDiffEditor, Kind: KindBoolean, Description: "Disable folding inside diff editors.", LanguageOverridable: true},
}

var catalogueIndex = func() map[Key]KeyInfo {
	index := make(map[Key]KeyInfo, len(catalogue))
	for _, info := range catalogue {
		index[info.Key] = info
	}
	return index
}()

// Keys returns every known key in catalogue order.
func Keys() []Key {
	out := make([]Key, len(catalogue))
	for i, info := range catalogue {
		out[i] = info.Key
	}
	return out
}

// Catalogue returns a copy of the key catalogue.
func Catalogue() []KeyInfo {
	return append([]KeyInfo(nil), catalogue...)
}

// Info returns the catalogue entry for k.
func (k Key) Info() (KeyInfo, bool) {
	info, ok := catalogueIndex[k]
	return info, ok
}

// Valid reports whether k belongs to the closed key set.
func (k Key) Valid() bool {
	_, ok := catalogueIndex[k]
	return ok
}

// Path returns the fully qualified settings path, e.g. "inlineFold.regex".
func (k Key) Path() string {
	if k == KeyIdentifier {
		return string(k)
	}
	return string(KeyIdentifier) + "." + string(k)
}

func (k Key) String() string {
	return string(k)
}

// ParseKey accepts either the bare key ("regex") or its qualified path
// ("inlineFold.regex").
func ParseKey(value string) (Key, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(trimmed, string(KeyIdentifier)+".")
	key := Key(trimmed)
	if !key.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, value)
	}
	return key, nil
}

// discoveryKeys lists the keys whose language overrides make a language
// supported. The section identifier and the supported list itself are
// excluded.
func discoveryKeys() []Key {
	keys := make([]Key, 0, len(catalogue))
	for _, info := range catalogue {
		if info.Key == KeyIdentifier || info.Key == KeySupportedLanguages {
			continue
		}
		keys = append(keys, info.Key)
	}
	return keys
}
