package gwlog

import (
	"os"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// DebugLevel level
	DebugLevel Level = Level(zap.DebugLevel)
	// InfoLevel level
	InfoLevel Level = Level(zap.InfoLevel)
	// WarnLevel level
	WarnLevel Level = Level(zap.WarnLevel)
	// ErrorLevel level
	ErrorLevel Level = Level(zap.ErrorLevel)
	// PanicLevel level
	PanicLevel Level = Level(zap.PanicLevel)
	// FatalLevel level
	FatalLevel Level = Level(zap.FatalLevel)

	// Debugf logs formatted debug message
	Debugf logFormatFunc
	// Infof logs formatted info message
	Infof logFormatFunc
	// Warnf logs formatted warn message
	Warnf logFormatFunc
	// Errorf logs formatted error message
	Errorf logFormatFunc
	Panicf logFormatFunc
	Fatalf logFormatFunc
	Fatal  func(args ...interface{})
	Panic  func(args ...interface{})
)

type logFormatFunc func(format string, args ...interface{})

// Level is type of log levels
type Level zapcore.Level

var (
	atomicLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	encoder     zapcore.Encoder
	output      zapcore.WriteSyncer
	source      string
	logger      *zap.Logger
	sugar       *zap.SugaredLogger
)

func init() {
	encoder = zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "message",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	output = zapcore.Lock(os.Stderr)
	rebuild()
}

func rebuild() {
	logger = zap.New(zapcore.NewCore(encoder, output, atomicLevel))
	if source != "" {
		logger = logger.With(zap.String("source", source))
	}
	setSugar(logger.Sugar())
}

// SetSource sets the component name (area1/connector1/...) of gwlog module
func SetSource(comp string) {
	source = comp
	rebuild()
}

func setSugar(sugar_ *zap.SugaredLogger) {
	sugar = sugar_
	Debugf = sugar.Debugf
	Infof = sugar.Infof
	Warnf = sugar.Warnf
	Errorf = sugar.Errorf
	Panicf = sugar.Panicf
	Panic = sugar.Panic
	Fatalf = sugar.Fatalf
	Fatal = sugar.Fatal
}

// SetLevel sets the log level
func SetLevel(lv Level) {
	atomicLevel.SetLevel(zapcore.Level(lv))
}

// GetLevel returns the current log level
func GetLevel() Level {
	return Level(atomicLevel.Level())
}

// TraceError prints the stack and error
func TraceError(format string, args ...interface{}) {
	output.Write(debug.Stack())
	Errorf(format, args...)
}

// SetOutput sets the outputs of logs
//
// "stderr" and "stdout" are the standard streams, anything else is a log file rotated by lumberjack
func SetOutput(outputs []string) {
	syncers := make([]zapcore.WriteSyncer, 0, len(outputs))
	for _, out := range outputs {
		switch out {
		case "stderr":
			syncers = append(syncers, zapcore.Lock(os.Stderr))
		case "stdout":
			syncers = append(syncers, zapcore.Lock(os.Stdout))
		default:
			syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
				Filename:   out,
				MaxSize:    100, // megabytes
				MaxBackups: 100,
				MaxAge:     30, // days
				Compress:   true,
			}))
		}
	}

	if len(syncers) == 0 {
		return
	}
	output = zapcore.NewMultiWriteSyncer(syncers...)
	rebuild()
}

// ParseLevel converts string to Levels
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "panic":
		return PanicLevel
	case "fatal":
		return FatalLevel
	}
	Errorf("ParseLevel: unknown level: %s", s)
	return DebugLevel
}
