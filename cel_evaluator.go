package langopts

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// maxCELHelperArity bounds the overloads generated per registry helper; CEL
// has no variadic functions.
const maxCELHelperArity = 3

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) { e.setCache(cache) }
}

// CELWithFunctionRegistry exposes registry helpers taking up to three
// arguments.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) { e.setRegistry(registry) }
}

type celEvaluator struct {
	engine
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Every settings
// key is declared as a dynamic variable, alongside language, args, settings
// and now.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{engine{name: "cel"}}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	return evaluateOnce(e, ctx, expression)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	compiled, err := e.program(expression, func() (any, error) {
		env, err := e.environment()
		if err != nil {
			return nil, err
		}
		ast, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		program, err := env.Program(ast)
		if err != nil {
			return nil, err
		}
		return program, nil
	})
	if err != nil {
		return nil, err
	}
	program, ok := compiled.(celgo.Program)
	if !ok {
		return nil, unexpectedProgram(e.name, compiled)
	}
	return rule{engine: e.name, expression: expression, run: func(ctx EvalContext) (any, error) {
		out, _, err := program.Eval(ctx.variables())
		if err != nil {
			return nil, err
		}
		return out.Value(), nil
	}}, nil
}

func (e *celEvaluator) environment() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("language", celgo.StringType),
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("settings", celgo.DynType),
	}
	for _, key := range Keys() {
		if key != KeyIdentifier {
			opts = append(opts, celgo.Variable(string(key), celgo.DynType))
		}
	}
	e.helpers(func(name string, fn Function) {
		helper, _ := e.registry.Lookup(name)
		opts = append(opts, celgo.Function(name, celOverloads(helper, fn)...))
	})
	return celgo.NewEnv(opts...)
}

// celOverloads declares one dyn overload per accepted argument count.
// Variadic helpers are exposed up to maxCELHelperArity arguments.
func celOverloads(helper Helper, fn Function) []celgo.FunctionOpt {
	upper := helper.MaxArgs
	if upper < 0 || upper > maxCELHelperArity {
		upper = maxCELHelperArity
	}
	binding := celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
		args := make([]any, len(values))
		for i, val := range values {
			args[i] = val.Value()
		}
		result, err := fn(args...)
		switch {
		case err != nil:
			return types.NewErr("%s", err.Error())
		case result == nil:
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	})

	var overloads []celgo.FunctionOpt
	for arity := helper.MinArgs; arity <= upper; arity++ {
		params := make([]*celgo.Type, arity)
		for i := range params {
			params[i] = celgo.DynType
		}
		id := fmt.Sprintf("%s_dyn_%d", helper.Name, arity)
		overloads = append(overloads, celgo.Overload(id, params, celgo.DynType, binding))
	}
	return overloads
}
