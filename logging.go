package langopts

import (
	"time"

	"go.uber.org/zap"
)

// Operation names used in LogEvent.
const (
	OpUpdate    = "update"
	OpGet       = "get"
	OpLanguages = "supported_languages"
	OpRegex     = "regex"
	OpEvaluate  = "evaluate"
	OpNotify    = "notify"
)

// LogEvent describes one resolver operation.
type LogEvent struct {
	Operation  string
	Key        Key
	Language   string
	Scope      string
	SnapshotID string
	Found      bool
	Engine     string
	Expr       string
	Duration   time.Duration
	Err        error
}

// Logger records resolver events.
type Logger interface {
	Log(LogEvent)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEvent)

// Log implements Logger.
func (f LoggerFunc) Log(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEvent) {}

// WithLogger attaches a logger to the resolver. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(cfg *resolverConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

type zapLogger struct {
	log *zap.Logger
}

// NewZapLogger adapts a zap logger. Successful operations log at debug
// level, failures at warn.
func NewZapLogger(log *zap.Logger) Logger {
	if log == nil {
		return noopLogger{}
	}
	return zapLogger{log: log.Named("langopts")}
}

func (l zapLogger) Log(event LogEvent) {
	fields := make([]zap.Field, 0, 9)
	fields = append(fields, zap.String("op", event.Operation))
	if event.Key != "" {
		fields = append(fields, zap.String("key", string(event.Key)))
	}
	if event.Language != "" {
		fields = append(fields, zap.String("language", event.Language))
	}
	if event.Scope != "" {
		fields = append(fields, zap.String("scope", event.Scope))
	}
	if event.SnapshotID != "" {
		fields = append(fields, zap.String("snapshot_id", event.SnapshotID))
	}
	if event.Engine != "" {
		fields = append(fields, zap.String("engine", event.Engine), zap.String("expr", event.Expr))
	}
	fields = append(fields, zap.Bool("found", event.Found))
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("duration", event.Duration))
	}
	if event.Err != nil {
		l.log.Warn("settings operation failed", append(fields, zap.Error(event.Err))...)
		return
	}
	l.log.Debug("settings operation", fields...)
}
