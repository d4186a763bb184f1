// Package logger holds the structured logger shared by the container internals.
package logger

import (
	"io"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// ComponentKey tags every record emitted by the container.
	ComponentKey = "component"
	component    = "ctxioc"
)

var (
	level         = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	defaultLogger atomic.Pointer[zap.SugaredLogger]
)

func init() {
	debug := envVarBool("DEBUG")
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}
	SetOutput(os.Stderr, debug)
}

// SetOutput replaces the destination of the container log. Development output is
// console text with caller locations; otherwise records are written as JSON.
func SetOutput(w io.Writer, development bool) {
	var encoder zapcore.Encoder
	var opts []zap.Option
	if development {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), level)
	l := zap.New(core, opts...).With(zap.String(ComponentKey, component))
	defaultLogger.Store(l.Sugar())
}

func Default() *zap.SugaredLogger {
	return defaultLogger.Load()
}

func Debug(msg string, keysAndValues ...any) {
	Default().Debugw(msg, keysAndValues...)
}

func Warn(msg string, keysAndValues ...any) {
	Default().Warnw(msg, keysAndValues...)
}

func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func Level() zapcore.Level {
	return level.Level()
}

func envVarBool(name string) bool {
	return os.Getenv(name) == "true"
}
