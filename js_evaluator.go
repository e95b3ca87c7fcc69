//go:build js_eval

package langopts

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsEvaluator struct {
	engine
}

// NewJSEvaluator constructs an Evaluator backed by goja. Each evaluation
// runs in a fresh runtime.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	e := &jsEvaluator{engine{name: "js"}}
	for _, opt := range opts {
		if opt != nil {
			opt(&e.engine)
		}
	}
	return e
}

func (e *jsEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	return evaluateOnce(e, ctx, expression)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	compiled, err := e.program(expression, func() (any, error) {
		return goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	})
	if err != nil {
		return nil, err
	}
	program, ok := compiled.(*goja.Program)
	if !ok {
		return nil, unexpectedProgram(e.name, compiled)
	}
	return rule{engine: e.name, expression: expression, run: func(ctx EvalContext) (any, error) {
		vm, err := e.runtime(ctx)
		if err != nil {
			return nil, err
		}
		value, err := vm.RunProgram(program)
		if err != nil {
			return nil, err
		}
		return value.Export(), nil
	}}, nil
}

// runtime builds a goja runtime with the context variables and helpers bound
// as globals.
func (e *jsEvaluator) runtime(ctx EvalContext) (*goja.Runtime, error) {
	vm := goja.New()
	globals := ctx.variables()
	if e.registry != nil {
		globals["call"] = e.dispatch
		e.helpers(func(name string, fn Function) {
			globals[name] = func(args ...any) (any, error) { return fn(args...) }
		})
	}
	for name, value := range globals {
		if err := vm.Set(name, value); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
func JSEvaluatorAvailable() bool {
	return true
}
