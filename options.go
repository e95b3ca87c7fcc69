package langopts

import (
	"time"

	"github.com/goliatone/go-langopts/pkg/activity"
)

// Option configures a Resolver.
type Option func(*resolverConfig)

type resolverConfig struct {
	documents       DocumentSource
	logger          Logger
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	activityHooks   activity.Hooks
	activityChannel string
	now             func() time.Time
}

func applyOptions(opts []Option) resolverConfig {
	cfg := resolverConfig{
		documents: noDocument{},
		logger:    noopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithDocumentSource sets the provider of the active document's language.
func WithDocumentSource(source DocumentSource) Option {
	return func(cfg *resolverConfig) {
		if source == nil {
			cfg.documents = noDocument{}
			return
		}
		cfg.documents = source
	}
}

// WithEvaluator sets the engine used by Resolver.Evaluate. Without it the
// expr engine is used.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *resolverConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a cache for compiled expressions.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *resolverConfig) {
		cfg.programCache = cache
	}
}

// WithActivityHooks attaches hooks notified when the snapshot is replaced.
// Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *resolverConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *resolverConfig) {
		cfg.activityChannel = channel
	}
}

// WithClock overrides the time source, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(cfg *resolverConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make(activity.Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			normalized = append(normalized, hook)
		}
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

// ProgramCache stores compiled expression programs keyed by source.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
