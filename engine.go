package langopts

import "fmt"

// engine is the state shared by the expression backends: an optional
// program cache and the helpers exposed to expressions.
type engine struct {
	name     string
	cache    ProgramCache
	registry *FunctionRegistry
}

func (e *engine) setCache(cache ProgramCache) { e.cache = cache }

func (e *engine) setRegistry(registry *FunctionRegistry) {
	if registry != nil {
		e.registry = registry.Clone()
	}
}

func (e *engine) Engine() string { return e.name }

// program returns the cached program for expression, compiling and storing
// it on a miss. Cache keys are prefixed with the engine name.
func (e *engine) program(expression string, compile func() (any, error)) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError(e.name, fmt.Errorf("expression must not be empty"))
	}
	key := e.name + ":" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			return cached, nil
		}
	}
	compiled, err := compile()
	if err != nil {
		return nil, wrapEvaluationError(e.name, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, compiled)
	}
	return compiled, nil
}

// helpers yields every registered helper with a function calling it through
// the registry, so arity is checked on each call.
func (e *engine) helpers(yield func(name string, fn Function)) {
	if e.registry == nil {
		return
	}
	registry := e.registry
	for _, name := range registry.Names() {
		fn := name
		yield(fn, func(args ...any) (any, error) {
			return registry.Call(fn, args...)
		})
	}
}

// dispatch implements call(name, args...).
func (e *engine) dispatch(params ...any) (any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("call requires a function name")
	}
	name, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("call name must be a string, got %T", params[0])
	}
	return e.registry.Call(name, params[1:]...)
}

// rule binds a compiled program to the runner that executes it.
type rule struct {
	engine     string
	expression string
	run        func(ctx EvalContext) (any, error)
}

func (r rule) Evaluate(ctx EvalContext) (any, error) {
	ctx = ctx.withDefaults()
	out, err := r.run(ctx)
	if err != nil {
		return nil, wrapEvaluationError(r.engine, r.expression, ctx.Language, err)
	}
	return out, nil
}

// evaluateOnce compiles expression through c and runs it against ctx.
func evaluateOnce(c interface {
	Compile(string) (CompiledRule, error)
}, ctx EvalContext, expression string) (any, error) {
	compiled, err := c.Compile(expression)
	if err != nil {
		return nil, err
	}
	return compiled.Evaluate(ctx)
}

func unexpectedProgram(engine string, got any) error {
	return wrapEvaluatorError(engine, fmt.Errorf("cached program has unexpected type %T", got))
}

// JSEvaluatorOption configures the goja evaluator. The options are accepted
// in every build so callers need no js_eval tag of their own.
type JSEvaluatorOption func(*engine)

// JSWithProgramCache applies a ProgramCache to the JS evaluator.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(e *engine) { e.setCache(cache) }
}

// JSWithFunctionRegistry exposes registry helpers as globals and through
// call(name, args...).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(e *engine) { e.setRegistry(registry) }
}
