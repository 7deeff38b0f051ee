// Package logging provides the leveled logger used by the converter and the
// CLI commands.
package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Level is a logging threshold.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// stdLogger writes "[LEVEL] message" lines through a standard library logger.
type stdLogger struct {
	out   *log.Logger
	level Level
}

// New returns a Logger writing to w, dropping messages below level.
func New(w io.Writer, level Level) Logger {
	return &stdLogger{
		out:   log.New(w, "", log.LstdFlags),
		level: level,
	}
}

func (l *stdLogger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, "DEBUG", msg, args) }
func (l *stdLogger) Info(msg string, args ...interface{})  { l.log(LevelInfo, "INFO", msg, args) }
func (l *stdLogger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, "WARN", msg, args) }
func (l *stdLogger) Error(msg string, args ...interface{}) { l.log(LevelError, "ERROR", msg, args) }

func (l *stdLogger) log(level Level, tag, msg string, args []interface{}) {
	if level < l.level {
		return
	}
	l.out.Printf("["+tag+"] "+msg, args...)
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return New(io.Discard, LevelError+1)
}
