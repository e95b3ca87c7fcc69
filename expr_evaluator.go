package langopts

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures an expr evaluator instance.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache wires a ProgramCache into the expr evaluator.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) { e.setCache(cache) }
}

// ExprWithFunctionRegistry exposes the registry's helpers by name and
// through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) { e.setRegistry(registry) }
}

type exprEvaluator struct {
	engine
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr.
// Undefined identifiers evaluate to nil.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{engine{name: "expr"}}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	return evaluateOnce(e, ctx, expression)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	compiled, err := e.program(expression, func() (any, error) {
		return exprlang.Compile(expression, e.options()...)
	})
	if err != nil {
		return nil, err
	}
	program, ok := compiled.(*exprvm.Program)
	if !ok {
		return nil, unexpectedProgram(e.name, compiled)
	}
	return rule{engine: e.name, expression: expression, run: func(ctx EvalContext) (any, error) {
		return exprlang.Run(program, ctx.variables())
	}}, nil
}

func (e *exprEvaluator) options() []exprlang.Option {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry == nil {
		return options
	}
	options = append(options, exprlang.Function("call", e.dispatch))
	e.helpers(func(name string, fn Function) {
		options = append(options, exprlang.Function(name, fn))
	})
	return options
}
