package langopts

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"
)

// Function is a helper callable from expressions.
type Function func(args ...any) (any, error)

// Helper is a registered Function with its accepted argument count.
// MaxArgs < 0 accepts any number of arguments from MinArgs up.
type Helper struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      Function
}

func (h Helper) accepts(n int) bool {
	return n >= h.MinArgs && (h.MaxArgs < 0 || n <= h.MaxArgs)
}

// FunctionRegistry stores expression helpers keyed by lower-cased name.
type FunctionRegistry struct {
	mu      sync.RWMutex
	helpers map[string]Helper
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{helpers: map[string]Helper{}}
}

// Register stores a variadic fn under name.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	return r.RegisterHelper(Helper{Name: name, MaxArgs: -1, Fn: fn})
}

// RegisterHelper stores h. Names are case-insensitive, "call" is reserved
// and each name may only be registered once.
func (r *FunctionRegistry) RegisterHelper(h Helper) error {
	if h.Fn == nil {
		return fmt.Errorf("langopts: function %q is nil", h.Name)
	}
	name := strings.ToLower(strings.TrimSpace(h.Name))
	switch {
	case name == "":
		return fmt.Errorf("langopts: function name must not be empty")
	case name == "call":
		return fmt.Errorf("langopts: function name %q is reserved", h.Name)
	case h.MinArgs < 0 || (h.MaxArgs >= 0 && h.MaxArgs < h.MinArgs):
		return fmt.Errorf("langopts: function %q has invalid arity %d..%d", h.Name, h.MinArgs, h.MaxArgs)
	}
	h.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.helpers == nil {
		r.helpers = map[string]Helper{}
	}
	if _, exists := r.helpers[name]; exists {
		return fmt.Errorf("langopts: function %q already registered", h.Name)
	}
	r.helpers[name] = h
	return nil
}

// Lookup returns the helper registered under name.
func (r *FunctionRegistry) Lookup(name string) (Helper, bool) {
	if r == nil {
		return Helper{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.helpers[strings.ToLower(name)]
	return h, ok
}

// Clone returns a copy that can be extended without affecting r.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{helpers: make(map[string]Helper, len(r.helpers))}
	for name, h := range r.helpers {
		out.helpers[name] = h
	}
	return out
}

// Call checks the argument count and runs the helper registered for name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("langopts: function registry is nil")
	}
	h, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("langopts: function %q not registered", name)
	}
	if !h.accepts(len(args)) {
		return nil, fmt.Errorf("langopts: function %q called with %d arguments", h.Name, len(args))
	}
	return h.Fn(args...)
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.helpers))
	for name := range r.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinFunctions returns a registry holding the fold helpers every
// evaluator created by the resolver starts with:
//
//	folds(text, pattern[, flags])  number of matches, as the editor counts them
//	mask(text[, char])             text with every rune replaced by char
func BuiltinFunctions() *FunctionRegistry {
	registry := NewFunctionRegistry()
	_ = registry.RegisterHelper(Helper{Name: "folds", MinArgs: 2, MaxArgs: 3, Fn: foldsHelper})
	_ = registry.RegisterHelper(Helper{Name: "mask", MinArgs: 1, MaxArgs: 2, Fn: maskHelper})
	return registry
}

func foldsHelper(args ...any) (any, error) {
	text, err := stringArg("folds", args, 0)
	if err != nil {
		return nil, err
	}
	source, err := stringArg("folds", args, 1)
	if err != nil {
		return nil, err
	}
	flags := "g"
	if len(args) > 2 {
		if flags, err = stringArg("folds", args, 2); err != nil {
			return nil, err
		}
	}
	pattern, err := CompilePattern(source, flags)
	if err != nil {
		return nil, err
	}
	matches, err := pattern.FindAll(text)
	if err != nil {
		return nil, err
	}
	return len(matches), nil
}

func maskHelper(args ...any) (any, error) {
	text, err := stringArg("mask", args, 0)
	if err != nil {
		return nil, err
	}
	char := "…"
	if len(args) > 1 {
		if char, err = stringArg("mask", args, 1); err != nil {
			return nil, err
		}
	}
	return strings.Repeat(char, utf8.RuneCountInString(text)), nil
}

func stringArg(fn string, args []any, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string, got %T", fn, i+1, args[i])
	}
	return s, nil
}

// merge copies every helper of other into r, replacing helpers of the same
// name.
func (r *FunctionRegistry) merge(other *FunctionRegistry) {
	if other == nil {
		return
	}
	other.mu.RLock()
	defer other.mu.RUnlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, h := range other.helpers {
		r.helpers[name] = h
	}
}

// WithFunctionRegistry adds the registry's helpers to the default evaluator.
// Helpers named like a builtin replace it.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *resolverConfig) {
		if registry == nil {
			return
		}
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		cfg.functions.merge(registry)
	}
}

// WithCustomFunction registers a single helper for the default evaluator.
// Registration errors are ignored; use a FunctionRegistry to observe them.
func WithCustomFunction(name string, fn Function) Option {
	return func(cfg *resolverConfig) {
		if cfg.functions == nil {
			cfg.functions = NewFunctionRegistry()
		}
		_ = cfg.functions.Register(name, fn)
	}
}
