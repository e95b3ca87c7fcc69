package langopts

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownKey indicates a key outside the closed settings set.
	ErrUnknownKey = errors.New("langopts: unknown settings key")
	// ErrNotFound indicates a key resolved to no value in any scope.
	ErrNotFound = errors.New("langopts: value not found")
	// ErrNoSnapshot indicates the resolver has not received a snapshot yet.
	ErrNoSnapshot = errors.New("langopts: no snapshot loaded")
	// ErrLanguageRequired indicates a language scope without a language id.
	ErrLanguageRequired = errors.New("langopts: language scope requires a language identifier")
	// ErrDuplicateScope indicates a snapshot received two layers for one scope.
	ErrDuplicateScope = errors.New("langopts: duplicate scope")
	// ErrScopeKind indicates a layer with an unknown scope kind.
	ErrScopeKind = errors.New("langopts: unknown scope kind")
	// ErrInvalidFlags indicates a flags string with unknown or repeated flags.
	ErrInvalidFlags = errors.New("langopts: invalid regular expression flags")
	// ErrUnsupportedFlag indicates a valid ECMAScript flag the engine cannot honour.
	ErrUnsupportedFlag = errors.New("langopts: unsupported regular expression flag")
	// ErrNoEvaluator indicates expression evaluation without a usable engine.
	ErrNoEvaluator = errors.New("langopts: evaluator not configured")
)

// TypeError reports a value whose shape does not match the requested type.
type TypeError struct {
	Key  Key
	Want string
	Got  any
}

func (e *TypeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("langopts: key %q: want %s, got %T", e.Key, e.Want, e.Got)
}

// PatternError captures the pattern source and flags alongside the
// compilation failure.
type PatternError struct {
	Pattern string
	Flags   string
	Err     error
}

func (e *PatternError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("langopts: pattern /%s/%s: %v", e.Pattern, e.Flags, e.Err)
}

func (e *PatternError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating error.
type EvaluationError struct {
	Engine   string
	Expr     string
	Language string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("langopts: %s evaluator %s language=%s: %v", e.Engine, describeExpression(e.Expr), describeLanguage(e.Language), e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func describeLanguage(language string) string {
	if language == "" {
		return "<none>"
	}
	return language
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	if strings.HasPrefix(err.Error(), "langopts:") {
		return err
	}
	return fmt.Errorf("langopts: %s evaluator: %w", engine, err)
}

func wrapEvaluationError(engine, expr, language string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Language == "" {
			evalErr.Language = language
		}
		return evalErr
	}

	return &EvaluationError{
		Engine:   engine,
		Expr:     expr,
		Language: language,
		Err:      err,
	}
}
