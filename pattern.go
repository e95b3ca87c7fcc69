package langopts

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

// Flags holds the ECMAScript flags attached to a pattern.
type Flags struct {
	HasIndices bool // d
	Global     bool // g
	IgnoreCase bool // i
	Multiline  bool // m
	DotAll     bool // s
	Unicode    bool // u
	Sticky     bool // y
}

// ParseFlags validates an ECMAScript flags string. Unknown or repeated
// characters fail with ErrInvalidFlags; "v" fails with ErrUnsupportedFlag.
func ParseFlags(value string) (Flags, error) {
	var flags Flags
	seen := map[rune]bool{}
	for _, ch := range value {
		if seen[ch] {
			return Flags{}, fmt.Errorf("%w: %q repeats %q", ErrInvalidFlags, value, ch)
		}
		seen[ch] = true
		switch ch {
		case 'd':
			flags.HasIndices = true
		case 'g':
			flags.Global = true
		case 'i':
			flags.IgnoreCase = true
		case 'm':
			flags.Multiline = true
		case 's':
			flags.DotAll = true
		case 'u':
			flags.Unicode = true
		case 'y':
			flags.Sticky = true
		case 'v':
			return Flags{}, fmt.Errorf("%w: %q", ErrUnsupportedFlag, ch)
		default:
			return Flags{}, fmt.Errorf("%w: %q contains %q", ErrInvalidFlags, value, ch)
		}
	}
	return flags, nil
}

// String renders the flags in canonical order.
func (f Flags) String() string {
	var b strings.Builder
	for _, entry := range []struct {
		set bool
		ch  byte
	}{
		{f.HasIndices, 'd'},
		{f.Global, 'g'},
		{f.IgnoreCase, 'i'},
		{f.Multiline, 'm'},
		{f.DotAll, 's'},
		{f.Unicode, 'u'},
		{f.Sticky, 'y'},
	} {
		if entry.set {
			b.WriteByte(entry.ch)
		}
	}
	return b.String()
}

func (f Flags) options() regexp2.RegexOptions {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if f.IgnoreCase {
		opts |= regexp2.IgnoreCase
	}
	if f.Multiline {
		opts |= regexp2.Multiline
	}
	if f.DotAll {
		opts |= regexp2.Singleline
	}
	if f.Unicode {
		opts |= regexp2.Unicode
	}
	return opts
}

// Pattern is a compiled fold pattern with its ECMAScript flags.
type Pattern struct {
	Source string
	Flags  Flags
	re     *regexp2.Regexp
}

// CompilePattern compiles source with ECMAScript semantics. Failures are
// returned as *PatternError.
func CompilePattern(source, flags string) (*Pattern, error) {
	parsed, err := ParseFlags(flags)
	if err != nil {
		return nil, &PatternError{Pattern: source, Flags: flags, Err: err}
	}
	re, err := regexp2.Compile(source, parsed.options())
	if err != nil {
		return nil, &PatternError{Pattern: source, Flags: flags, Err: err}
	}
	return &Pattern{Source: source, Flags: parsed, re: re}, nil
}

// String renders the pattern as a regular expression literal.
func (p *Pattern) String() string {
	if p == nil {
		return "<nil>"
	}
	source := p.Source
	if source == "" {
		source = "(?:)"
	}
	return "/" + source + "/" + p.Flags.String()
}

// MatchString reports whether text contains a match. Sticky patterns must
// match at the start of text.
func (p *Pattern) MatchString(text string) (bool, error) {
	if p.Flags.Sticky {
		m, err := p.re.FindStringMatch(text)
		if err != nil {
			return false, err
		}
		return m != nil && m.Index == 0, nil
	}
	return p.re.MatchString(text)
}

// Group is one capture group of a Match. Index and Length count runes.
type Group struct {
	Number  int    `json:"number"`
	Name    string `json:"name,omitempty"`
	Index   int    `json:"index"`
	Length  int    `json:"length"`
	Text    string `json:"text"`
	Matched bool   `json:"matched"`
}

// Match is one pattern match. Index and Length count runes.
type Match struct {
	Index  int     `json:"index"`
	Length int     `json:"length"`
	Text   string  `json:"text"`
	Groups []Group `json:"groups"`
}

// Group returns capture group number n, n == 0 being the whole match.
func (m Match) Group(n int) (Group, bool) {
	for _, group := range m.Groups {
		if group.Number == n {
			return group, group.Matched
		}
	}
	return Group{}, false
}

// FindAll returns every match when the pattern is global and at most one
// otherwise. Sticky patterns only accept matches that start where the
// previous one ended.
func (p *Pattern) FindAll(text string) ([]Match, error) {
	runes := []rune(text)
	var out []Match
	position := 0
	m, err := p.re.FindRunesMatchStartingAt(runes, 0)
	if err != nil {
		return nil, err
	}
	for m != nil {
		if p.Flags.Sticky && m.Index != position {
			break
		}
		out = append(out, p.convert(m))
		if !p.Flags.Global {
			break
		}
		position = m.Index + m.Length
		if m, err = p.re.FindNextMatch(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Pattern) convert(m *regexp2.Match) Match {
	match := Match{
		Index:  m.Index,
		Length: m.Length,
		Text:   m.String(),
	}
	numbers := p.re.GetGroupNumbers()
	for i, group := range m.Groups() {
		number := i
		if i < len(numbers) {
			number = numbers[i]
		}
		entry := Group{Number: number, Name: group.Name, Matched: len(group.Captures) > 0}
		if entry.Matched {
			entry.Index = group.Index
			entry.Length = group.Length
			entry.Text = group.String()
		}
		match.Groups = append(match.Groups, entry)
	}
	return match
}
