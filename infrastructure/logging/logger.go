// Package logging wraps bolt with the run's structured log fields. The
// process logger is configured once by the CLI; everything else obtains
// events through the level constructors below.
package logging

import (
	"os"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	defaultLogger *bolt.Logger
	once          sync.Once
)

// Config selects the handler and minimum level for the process logger.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn or error.
	Level string

	// Format selects the handler: json, or console for local runs.
	Format string

	// Output receives all log lines. Defaults to stderr so rendered
	// notebook and report output on stdout stays clean.
	Output *os.File
}

var levels = map[string]bolt.Level{
	"trace": bolt.TRACE,
	"debug": bolt.DEBUG,
	"info":  bolt.INFO,
	"warn":  bolt.WARN,
	"error": bolt.ERROR,
}

// Init configures the process logger. Only the first call takes effect;
// packages that log before the CLI runs get the defaults.
func Init(config Config) {
	once.Do(func() {
		out := config.Output
		if out == nil {
			out = os.Stderr
		}

		var handler bolt.Handler
		if config.Format == "json" {
			handler = bolt.NewJSONHandler(out)
		} else {
			handler = bolt.NewConsoleHandler(out)
		}

		level, ok := levels[config.Level]
		if !ok {
			level = bolt.INFO
		}
		defaultLogger = bolt.New(handler).SetLevel(level)
	})
}

func logger() *bolt.Logger {
	if defaultLogger == nil {
		Init(Config{Level: "info", Format: "console"})
	}
	return defaultLogger
}

// LogEvent wraps a bolt.Event so Fields can be chained onto it.
type LogEvent struct {
	event *bolt.Event
}

// Add applies a field to the event and returns the wrapper for chaining.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg sends the log event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Debug starts a debug-level event.
func Debug() *LogEvent {
	return &LogEvent{event: logger().Debug()}
}

// Info starts an info-level event.
func Info() *LogEvent {
	return &LogEvent{event: logger().Info()}
}

// Warn starts a warn-level event.
func Warn() *LogEvent {
	return &LogEvent{event: logger().Warn()}
}

// Error starts an error-level event.
func Error() *LogEvent {
	return &LogEvent{event: logger().Error()}
}
