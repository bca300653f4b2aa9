package pllog

import "go.uber.org/zap"

// zapLogger backs the pluggable Logger contract with a structured zap
// logger. zap already rides in this module's dependency graph
// transitively through go.etcd.io/etcd/client/v3; this offers it as a
// ready-made structured Logger instead of leaving every caller to
// hand-roll one. Packages still fall back to Noop when no Logger is given.
type zapLogger struct {
	l *zap.Logger
}

// NewZapLogger wraps an existing *zap.Logger.
func NewZapLogger(l *zap.Logger) Logger {
	return &zapLogger{l: l}
}

// NewProduction builds a Logger backed by zap's production configuration
// (JSON encoding, info level, sampling).
func NewProduction() (Logger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

// NewDevelopment builds a Logger backed by zap's development configuration
// (console encoding, debug level, no sampling).
func NewDevelopment() (Logger, error) {
	l, err := zap.NewDevelopment()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(l), nil
}

func (z *zapLogger) Log(module, action, event string, priority Priority) {
	fields := []zap.Field{zap.String("module", module), zap.String("action", action)}
	switch priority {
	case Error:
		z.l.Error(event, fields...)
	case Warning:
		z.l.Warn(event, fields...)
	case Info:
		z.l.Info(event, fields...)
	default:
		z.l.Debug(event, fields...)
	}
}
