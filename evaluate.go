package langopts

import (
	"fmt"
	"time"
)

// EvalContext is the environment an expression is evaluated against.
type EvalContext struct {
	// Settings holds resolved values keyed by settings key name.
	Settings map[string]any
	// Language is the active document language, empty when none applies.
	Language string
	Args     map[string]any
	Now      time.Time
}

func (c EvalContext) withDefaults() EvalContext {
	if c.Settings == nil {
		c.Settings = map[string]any{}
	}
	if c.Args == nil {
		c.Args = map[string]any{}
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	return c
}

// variables flattens the context into the names expressions can reference.
// Every catalogue key is bound, absent ones to nil.
func (c EvalContext) variables() map[string]any {
	vars := make(map[string]any, len(c.Settings)+8)
	for _, key := range Keys() {
		if key == KeyIdentifier {
			continue
		}
		vars[string(key)] = nil
	}
	for name, value := range c.Settings {
		vars[name] = value
	}
	vars["language"] = c.Language
	vars["args"] = c.Args
	vars["now"] = c.Now
	vars["settings"] = c.Settings
	return vars
}

// Evaluator runs expressions against an EvalContext.
type Evaluator interface {
	Evaluate(ctx EvalContext, expression string) (any, error)
	Compile(expression string) (CompiledRule, error)
}

// CompiledRule is an expression compiled once and evaluated many times.
type CompiledRule interface {
	Evaluate(ctx EvalContext) (any, error)
}

// Evaluate runs expr against the currently resolved settings and the
// active language.
func (r *Resolver) Evaluate(expr string) (any, error) {
	return r.EvaluateWith(EvalContext{}, expr)
}

// EvaluateWith runs expr against ctx. Empty Settings and Language are filled
// from the resolver.
func (r *Resolver) EvaluateWith(ctx EvalContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("langopts: expression must not be empty")
	}
	evaluator, err := r.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ref := r.current.Load()
	if ctx.Settings == nil {
		resolved := r.resolved(ref)
		ctx.Settings = make(map[string]any, len(resolved))
		for key, value := range resolved {
			ctx.Settings[string(key)] = value
		}
	}
	if ctx.Language == "" && ref != nil {
		ctx.Language = r.languageFor(ref.snapshot)
	}
	if ctx.Now.IsZero() {
		ctx.Now = r.cfg.now()
	}

	engine := engineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = wrapEvaluationError(engine, expr, ctx.Language, evalErr)
	r.cfg.logger.Log(LogEvent{
		Operation: OpEvaluate,
		Language:  ctx.Language,
		Engine:    engine,
		Expr:      expr,
		Found:     evalErr == nil,
		Duration:  time.Since(start),
		Err:       evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (r *Resolver) resolveEvaluator() (Evaluator, error) {
	r.evalMu.Lock()
	defer r.evalMu.Unlock()
	if r.evaluator != nil {
		return r.evaluator, nil
	}
	functions := BuiltinFunctions()
	functions.merge(r.cfg.functions)
	exprOpts := []ExprEvaluatorOption{ExprWithFunctionRegistry(functions)}
	if r.cfg.programCache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(r.cfg.programCache))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	r.evaluator = evaluator
	return evaluator, nil
}

func engineName(e Evaluator) string {
	if named, ok := e.(interface{ Engine() string }); ok {
		return named.Engine()
	}
	return "custom"
}
