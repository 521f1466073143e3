package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// LogLevel is a logging verbosity, ordered from quietest to loudest.
type LogLevel int

// Log levels.
const (
	LogLevelOff LogLevel = iota
	LogLevelError
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

//nolint:gochecknoglobals // indexed by LogLevel
var levelNames = []string{"off", "error", "warn", "info", "debug"}

// ParseLogLevel parses a level name. Unknown names fall back to error.
func ParseLogLevel(s string) LogLevel {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "none", "disabled":
		return LogLevelOff
	case "warning":
		return LogLevelWarn
	}
	if i := slices.Index(levelNames, name); i >= 0 {
		return LogLevel(i)
	}
	return LogLevelError
}

func (l LogLevel) String() string {
	if l < LogLevelOff || l > LogLevelDebug {
		return "error"
	}
	return levelNames[l]
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelOff:
		return zerolog.Disabled
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger writes JSON log lines through zerolog. Loggers derived with With
// share the parent's file.
type Logger struct {
	level LogLevel
	path  string
	zl    zerolog.Logger

	closeOnce sync.Once
	file      *os.File
}

// NewLogger opens path for appending and logs at level. LogLevelOff or an
// empty path yields NullLogger.
func NewLogger(level LogLevel, path string) (*Logger, error) {
	if level == LogLevelOff || path == "" {
		return NullLogger(), nil
	}

	path = ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	// #nosec G304 -- log file path is from validated config
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	return &Logger{
		level: level,
		path:  path,
		file:  f,
		zl:    newZerolog(f, level),
	}, nil
}

// NewWriterLogger logs to w. Close is a no-op.
func NewWriterLogger(level LogLevel, w io.Writer) *Logger {
	return &Logger{level: level, zl: newZerolog(w, level)}
}

// NullLogger discards everything.
func NullLogger() *Logger {
	return &Logger{level: LogLevelOff, zl: zerolog.Nop()}
}

func newZerolog(w io.Writer, level LogLevel) zerolog.Logger {
	return zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
}

// Close closes the log file. Later calls return nil.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// Level returns the configured level.
func (l *Logger) Level() LogLevel {
	return l.level
}

// Path returns the log file path, or "" when not logging to a file.
func (l *Logger) Path() string {
	return l.path
}

// With returns a logger that adds key=value to every line.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{
		level: l.level,
		path:  l.path,
		zl:    l.zl.With().Interface(key, value).Logger(),
	}
}

// Zerolog returns the underlying logger for field-based events.
func (l *Logger) Zerolog() *zerolog.Logger {
	zl := l.zl
	return &zl
}

// Debug logs at debug level.
func (l *Logger) Debug(format string, args ...any) {
	l.zl.Debug().Msgf(format, args...)
}

// Info logs at info level.
func (l *Logger) Info(format string, args ...any) {
	l.zl.Info().Msgf(format, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(format string, args ...any) {
	l.zl.Warn().Msgf(format, args...)
}

// Error logs at error level.
func (l *Logger) Error(format string, args ...any) {
	l.zl.Error().Msgf(format, args...)
}
