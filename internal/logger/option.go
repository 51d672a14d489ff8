package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// fixedLevelCore ignores the level of the core it wraps and uses its own.
// It lets a single command lower the threshold below the shared atomic level.
type fixedLevelCore struct {
	zapcore.Core

	// level is the minimum level this core writes.
	level zapcore.Level
}

// Enabled reports whether l passes the fixed level.
func (c *fixedLevelCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check registers c for entries at or above the fixed level.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *fixedLevelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the fixed level on derived cores, so named and scoped loggers
// taken from a context stay at the same level.
//
//nolint:ireturn,nolintlint // Returning zapcore.Core is intended for zap integration.
func (c *fixedLevelCore) With(fields []zapcore.Field) zapcore.Core {
	return &fixedLevelCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel returns a zap option that pins the logger to lvl.
//
//nolint:ireturn,nolintlint // Returning zap.Option is intended for zap integration.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &fixedLevelCore{
			Core:  core,
			level: lvl,
		}
	})
}

// EnableDebug replaces the global logger with a copy pinned to the debug level.
// Loggers already stored in contexts keep their old level.
func EnableDebug() {
	SetLogger(global.Desugar().WithOptions(WithLevel(zapcore.DebugLevel)).Sugar())
}
