package langopts

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type evaluatorFactory struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}

var evaluatorFactories = []evaluatorFactory{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

func availableFactories(t *testing.T) []evaluatorFactory {
	t.Helper()
	out := make([]evaluatorFactory, 0, len(evaluatorFactories))
	for _, factory := range evaluatorFactories {
		if factory.name == "js" && !JSEvaluatorAvailable() {
			continue
		}
		out = append(out, factory)
	}
	return out
}

type countingCache struct {
	mu     sync.Mutex
	values map[string]any
	hits   int
	sets   int
}

func newCountingCache() *countingCache {
	return &countingCache{values: map[string]any{}}
}

func (c *countingCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.values[key]
	if ok {
		c.hits++
	}
	return value, ok
}

func (c *countingCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	c.sets++
}

func TestEvaluatorsReadSettingsAndLanguage(t *testing.T) {
	ctx := EvalContext{
		Settings: map[string]any{"autoFold": true, "maskChar": "*"},
		Language: "vue",
	}
	for _, factory := range availableFactories(t) {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, nil)
			result, err := evaluator.Evaluate(ctx, `autoFold && language == "vue"`)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if result != true {
				t.Fatalf("expected true, got %v", result)
			}
		})
	}
}

func TestEvaluatorsBindAbsentKeysToNull(t *testing.T) {
	for _, factory := range availableFactories(t) {
		t.Run(factory.name, func(t *testing.T) {
			expression := `maskColor == null`
			if factory.name == "expr" {
				expression = `maskColor == nil`
			}
			result, err := factory.new(nil, nil).Evaluate(EvalContext{}, expression)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if result != true {
				t.Fatalf("expected absent key to be null, got %v", result)
			}
		})
	}
}

func TestEvaluatorProgramCache(t *testing.T) {
	for _, factory := range availableFactories(t) {
		t.Run(factory.name, func(t *testing.T) {
			cache := newCountingCache()
			evaluator := factory.new(cache, nil)
			expression := `language == "go"`
			for _, language := range []string{"go", "python"} {
				result, err := evaluator.Evaluate(EvalContext{Language: language}, expression)
				if err != nil {
					t.Fatalf("evaluate: %v", err)
				}
				if result != (language == "go") {
					t.Fatalf("unexpected result %v for %s", result, language)
				}
			}
			if cache.sets != 1 || cache.hits != 1 {
				t.Fatalf("expected one compile and one hit, got sets=%d hits=%d", cache.sets, cache.hits)
			}
			if _, ok := cache.values[factory.name+":"+expression]; !ok {
				t.Fatalf("expected engine-prefixed cache key, got %v", cache.values)
			}
		})
	}
}

func TestEvaluatorCompiledRule(t *testing.T) {
	for _, factory := range availableFactories(t) {
		t.Run(factory.name, func(t *testing.T) {
			rule, err := factory.new(nil, nil).Compile(`language == "go"`)
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			for language, want := range map[string]bool{"go": true, "rust": false} {
				result, err := rule.Evaluate(EvalContext{Language: language})
				if err != nil {
					t.Fatalf("evaluate: %v", err)
				}
				if result != want {
					t.Fatalf("%s: expected %v, got %v", language, want, result)
				}
			}
			if _, err := factory.new(nil, nil).Compile(""); err == nil {
				t.Fatalf("expected empty expression to fail")
			}
		})
	}
}

func TestEvaluatorSyntaxErrors(t *testing.T) {
	for _, factory := range availableFactories(t) {
		t.Run(factory.name, func(t *testing.T) {
			_, err := factory.new(nil, nil).Evaluate(EvalContext{}, `autoFold &&`)
			var evalErr *EvaluationError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected EvaluationError, got %v", err)
			}
			if evalErr.Engine != factory.name || evalErr.Expr != `autoFold &&` {
				t.Fatalf("unexpected metadata %+v", evalErr)
			}
		})
	}
}

func TestCustomFunctionsAcrossEvaluators(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("Wrap", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, errors.New("wrap expects two arguments")
		}
		return args[1].(string) + args[0].(string) + args[1].(string), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctx := EvalContext{Settings: map[string]any{"maskChar": "*"}}
	for _, factory := range availableFactories(t) {
		t.Run(factory.name, func(t *testing.T) {
			evaluator := factory.new(nil, registry)
			result, err := evaluator.Evaluate(ctx, `wrap(maskChar, "|")`)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if result != "|*|" {
				t.Fatalf("expected |*|, got %v", result)
			}
			if _, err := evaluator.Evaluate(ctx, `wrap(maskChar)`); err == nil {
				t.Fatalf("expected helper error to surface")
			}
		})
	}
}

func TestFunctionRegistryRules(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(args ...any) (any, error) { return nil, nil }
	if err := registry.Register("call", noop); err == nil {
		t.Fatalf("expected reserved name to fail")
	}
	if err := registry.Register("", noop); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := registry.Register("helper", nil); err == nil {
		t.Fatalf("expected nil function to fail")
	}
	if err := registry.Register("Helper", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("HELPER", noop); err == nil {
		t.Fatalf("expected duplicate to fail")
	}
	clone := registry.Clone()
	if err := clone.Register("other", noop); err != nil {
		t.Fatalf("register on clone: %v", err)
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "helper" {
		t.Fatalf("clone must not affect original, got %v", names)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected unknown function to fail")
	}
}

func TestResolverEvaluateDefaultsToExpr(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	var events []LogEvent
	r := NewResolver(
		WithDocumentSource(NewActiveDocument("python")),
		WithClock(func() time.Time { return fixed }),
		WithCustomFunction("shout", func(args ...any) (any, error) {
			return strings.ToUpper(args[0].(string)), nil
		}),
		WithLogger(LoggerFunc(func(event LogEvent) {
			if event.Operation == OpEvaluate {
				events = append(events, event)
			}
		})),
	)
	r.Update(foldSnapshot(t, false))

	result, err := r.Evaluate(`shout(language) + ":" + maskChar`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != "PYTHON:#" {
		t.Fatalf("unexpected result %v", result)
	}

	result, err = r.Evaluate(`folds("a1b22c333", regex) + len(mask(maskChar + "ab", "*"))`)
	if err != nil {
		t.Fatalf("evaluate builtins: %v", err)
	}
	if result != 0+3 {
		t.Fatalf("expected no folds for the class pattern and a 3 rune mask, got %v", result)
	}

	if len(events) != 2 || events[0].Engine != "expr" || !events[0].Found {
		t.Fatalf("unexpected evaluate events %+v", events)
	}
}

func TestResolverEvaluateWithCEL(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	r := NewResolver(
		WithDocumentSource(NewActiveDocument("go")),
		WithEvaluator(NewCELEvaluator(CELWithFunctionRegistry(BuiltinFunctions()))),
		WithClock(func() time.Time { return fixed }),
	)
	r.Update(foldSnapshot(t, false))

	result, err := r.Evaluate(`regex == "\\d+" && regexGroup == 3`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}

	result, err = r.Evaluate(`now == timestamp("2024-05-01T09:30:00Z") && folds("a1b22", regex) == 2`)
	if err != nil {
		t.Fatalf("evaluate clock: %v", err)
	}
	if result != true {
		t.Fatalf("expected resolver clock and builtin helper, got %v", result)
	}

	_, err = r.Evaluate(`missingVariable`)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Language != "go" {
		t.Fatalf("expected EvaluationError with language, got %v", err)
	}
}

func TestResolverEvaluateOverridesContext(t *testing.T) {
	r := NewResolver(WithDocumentSource(NewActiveDocument("python")))
	r.Update(foldSnapshot(t, false))

	result, err := r.EvaluateWith(EvalContext{
		Settings: map[string]any{"maskChar": "!"},
		Language: "rust",
		Args:     map[string]any{"line": 4},
	}, `maskChar + language + string(args.line)`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != "!rust4" {
		t.Fatalf("unexpected result %v", result)
	}

	if _, err := r.Evaluate(""); err == nil {
		t.Fatalf("expected empty expression to fail")
	}
}

func TestBuiltinFunctions(t *testing.T) {
	builtins := BuiltinFunctions()
	if names := builtins.Names(); len(names) != 2 || names[0] != "folds" || names[1] != "mask" {
		t.Fatalf("unexpected builtins %v", names)
	}
	count, err := builtins.Call("folds", "x1 y22", `\d`)
	if err != nil || count != 3 {
		t.Fatalf("expected 3 global matches, got %v err=%v", count, err)
	}
	count, err = builtins.Call("folds", "x1 y22", `\d`, "")
	if err != nil || count != 1 {
		t.Fatalf("expected a single non-global match, got %v err=%v", count, err)
	}
	masked, err := builtins.Call("mask", "héllo", "*")
	if err != nil || masked != "*****" {
		t.Fatalf("expected rune-wise mask, got %v err=%v", masked, err)
	}
	if _, err := builtins.Call("mask"); err == nil {
		t.Fatalf("expected arity check to fail")
	}
	if _, err := builtins.Call("folds", "x", 1); err == nil {
		t.Fatalf("expected non-string pattern to fail")
	}
	if _, err := builtins.Call("folds", "x", "(", "g"); !errors.As(err, new(*PatternError)) {
		t.Fatalf("expected PatternError, got %v", err)
	}
}

func TestFunctionRegistryArity(t *testing.T) {
	registry := NewFunctionRegistry()
	noop := func(args ...any) (any, error) { return len(args), nil }
	if err := registry.RegisterHelper(Helper{Name: "bad", MinArgs: 2, MaxArgs: 1, Fn: noop}); err == nil {
		t.Fatalf("expected invalid arity to fail")
	}
	if err := registry.RegisterHelper(Helper{Name: "Pair", MinArgs: 2, MaxArgs: 2, Fn: noop}); err != nil {
		t.Fatalf("register: %v", err)
	}
	helper, ok := registry.Lookup("PAIR")
	if !ok || helper.Name != "pair" {
		t.Fatalf("expected case-insensitive lookup, got %+v", helper)
	}
	if _, err := registry.Call("pair", 1); err == nil {
		t.Fatalf("expected arity error")
	}
	if n, err := registry.Call("pair", 1, 2); err != nil || n != 2 {
		t.Fatalf("expected 2, got %v err=%v", n, err)
	}
}

func TestWithFunctionRegistryReplacesBuiltin(t *testing.T) {
	custom := NewFunctionRegistry()
	if err := custom.Register("mask", func(args ...any) (any, error) { return "custom", nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	r := NewResolver(WithFunctionRegistry(custom))
	r.Update(mustSnapshot(t, NewLayer(GlobalScope(), Values{KeyMaskChar: "*"})))
	result, err := r.Evaluate(`mask("abc")`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result != "custom" {
		t.Fatalf("expected registry helper to replace builtin, got %v", result)
	}
}
