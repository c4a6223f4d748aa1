package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Interface interface {
	Debug(message interface{}, args ...interface{})
	Info(message string, args ...interface{})
	Warn(message string, args ...interface{})
	Error(message interface{}, args ...interface{})
	Fatal(message interface{}, args ...interface{})
}

type Logger struct {
	logger *zap.SugaredLogger
}

var _ Interface = (*Logger)(nil)

func New(level string) *Logger {
	var l zapcore.Level

	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		l = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(l)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.MessageKey = "message"

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger - New - cfg.Build: %s\n", err)
		z = zap.NewNop()
	}

	return &Logger{logger: z.Sugar()}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{logger: zap.NewNop().Sugar()}
}

func (l *Logger) Debug(message interface{}, args ...interface{}) {
	l.logger.Debug(l.format("debug", message, args...))
}

func (l *Logger) Info(message string, args ...interface{}) {
	l.logger.Info(l.format("info", message, args...))
}

func (l *Logger) Warn(message string, args ...interface{}) {
	l.logger.Warn(l.format("warn", message, args...))
}

func (l *Logger) Error(message interface{}, args ...interface{}) {
	l.logger.Error(l.format("error", message, args...))
}

func (l *Logger) Fatal(message interface{}, args ...interface{}) {
	l.logger.Fatal(l.format("fatal", message, args...))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.logger.Sync()
}

// format renders both call shapes used across the code base:
// Info("consumed %s", id) and Error(err, "Controller - Method - callee").
func (l *Logger) format(level string, message interface{}, args ...interface{}) string {
	switch msg := message.(type) {
	case error:
		if len(args) == 0 {
			return msg.Error()
		}
		if where, ok := args[0].(string); ok {
			if len(args) == 1 {
				return fmt.Sprintf("%s: %s", where, msg)
			}
			return fmt.Sprintf("%s: %s", fmt.Sprintf(where, args[1:]...), msg)
		}
		return fmt.Sprintf("%s %v", msg, args)
	case string:
		if len(args) == 0 {
			return msg
		}
		return fmt.Sprintf(msg, args...)
	default:
		return fmt.Sprintf("%s message %v has unknown type %T", level, message, message)
	}
}
