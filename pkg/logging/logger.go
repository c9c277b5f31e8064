package logging

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
	runtimelog "sigs.k8s.io/controller-runtime/pkg/log"
)

type (
	Level  int8
	Format string
)

const (
	// Zap accepts levels outside the range of its own constants. DiscardLevel
	// and TraceLevel are built on that.
	DiscardLevel Level = Level(zapcore.FatalLevel + 1)
	ErrorLevel   Level = Level(zapcore.ErrorLevel)
	InfoLevel    Level = Level(zapcore.InfoLevel)
	DebugLevel   Level = Level(zapcore.DebugLevel)
	TraceLevel   Level = DebugLevel - 1

	ConsoleFormat Format = "console"
	JSONFormat    Format = "json"
	DefaultFormat Format = ConsoleFormat

	LogLevelEnvVar  = "LOG_LEVEL"
	LogFormatEnvVar = "LOG_FORMAT"
	KlogLevelEnvVar = "KLOG_LEVEL"
)

type loggerContextKey struct{}

var (
	writer       zapcore.WriteSyncer
	globalLogger *Logger
)

func init() {
	level := InfoLevel
	if l := os.Getenv(LogLevelEnvVar); l != "" {
		var err error
		if level, err = ParseLevel(l); err != nil {
			panic(err)
		}
	}

	format := DefaultFormat
	if f := os.Getenv(LogFormatEnvVar); f != "" {
		format = Format(f)
	}

	// Every Logger, klog, and controller-runtime share one write syncer so
	// output from all three is serialized to the same destination.
	var err error
	if writer, _, err = zap.Open("stderr"); err != nil {
		panic(err)
	}

	if globalLogger, err = newLoggerInternal(level, format, writer); err != nil {
		panic(err)
	}

	klog.InitFlags(nil)
	klog.SetOutput(writer)
	klogLevel := "0"
	if k := os.Getenv(KlogLevelEnvVar); k != "" {
		klogLevel = k
	}
	if err = flag.Set("v", klogLevel); err != nil {
		panic(err)
	}

	runtimelog.SetLogger(globalLogger.Logr())
}

// Logger is a thin wrapper around a zap.SugaredLogger with a logr-like API.
type Logger struct {
	logger *zap.SugaredLogger
}

// NewDiscardLoggerOrDie returns a *Logger that discards everything. It is
// mostly useful in tests.
func NewDiscardLoggerOrDie() *Logger {
	return NewLoggerOrDie(DiscardLevel, ConsoleFormat)
}

// NewLoggerOrDie returns a new *Logger or panics if the level or format is
// invalid.
func NewLoggerOrDie(level Level, format Format) *Logger {
	logger, err := NewLogger(level, format)
	if err != nil {
		panic(err)
	}
	return logger
}

// NewLogger returns a new *Logger that writes to the process-wide writer.
func NewLogger(level Level, format Format) (*Logger, error) {
	return newLoggerInternal(level, format, writer)
}

// NewLoggerWithWriter returns a new *Logger that writes to w instead of the
// process-wide writer.
func NewLoggerWithWriter(level Level, format Format, w io.Writer) (*Logger, error) {
	return newLoggerInternal(level, format, zapcore.AddSync(w))
}

func newLoggerInternal(
	level Level,
	format Format,
	w zapcore.WriteSyncer,
) (*Logger, error) {
	if level == DiscardLevel {
		return &Logger{logger: zap.NewNop().Sugar()}, nil
	}
	if level < TraceLevel || level > ErrorLevel {
		return nil, fmt.Errorf("invalid log level: %d", level)
	}
	format, err := ParseFormat(string(format))
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		zapcore.RFC3339TimeEncoder(t.UTC(), enc)
	}
	encCfg.EncodeLevel = traceEncoder

	var encoder zapcore.Encoder
	switch format {
	case ConsoleFormat:
		encoder = zapcore.NewConsoleEncoder(encCfg)
	case JSONFormat:
		encoder = zapcore.NewJSONEncoder(encCfg)
	}
	core := zapcore.NewCore(
		encoder,
		w,
		zap.NewAtomicLevelAt(zapcore.Level(level)),
	)
	return Wrap(zap.New(core, zap.AddCaller())), nil
}

func traceEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if level == zapcore.Level(TraceLevel) {
		enc.AppendString("TRACE")
		return
	}
	zapcore.CapitalLevelEncoder(level, enc)
}

// Wrap returns a new *Logger that wraps the provided zap.Logger.
func Wrap(zapLogger *zap.Logger) *Logger {
	return &Logger{
		logger: zapLogger.Sugar().WithOptions(zap.AddCallerSkip(1)),
	}
}

// ContextWithLogger returns a copy of ctx carrying the provided *Logger.
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// LoggerFromContext returns the *Logger carried by ctx, or the global *Logger
// if there is none.
func LoggerFromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey{}).(*Logger); ok && logger != nil {
		return logger
	}
	return globalLogger
}

// WithValues returns a child *Logger with additional key/value context.
func (l *Logger) WithValues(keysAndValues ...any) *Logger {
	return &Logger{logger: l.logger.With(keysAndValues...)}
}

// Error logs err at the error level.
func (l *Logger) Error(err error, msg string, keysAndValues ...any) {
	if msg == "" {
		l.logger.Errorw(fmt.Sprintf("%v", err), keysAndValues...)
		return
	}
	l.logger.Errorw(fmt.Sprintf("%s: %v", msg, err), keysAndValues...)
}

// Info logs a message at the info level.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	l.logger.Infow(msg, keysAndValues...)
}

// Debug logs a message at the debug level.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	l.logger.Debugw(msg, keysAndValues...)
}

// Trace logs a message at the trace level. Zap has no Trace method, but
// TraceLevel sits one below DebugLevel and traceEncoder renders it as TRACE.
func (l *Logger) Trace(msg string, keysAndValues ...any) {
	l.logger.With(keysAndValues...).Log(zapcore.Level(TraceLevel), msg)
}

// Logr returns this Logger as a logr.Logger for libraries that expect one.
func (l *Logger) Logr() logr.Logger {
	return zapr.NewLoggerWithOptions(
		l.logger.Desugar().WithOptions(zap.AddCallerSkip(-1)),
	)
}
