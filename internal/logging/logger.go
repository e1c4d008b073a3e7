// Package logging provides structured logging for both CLI and GUI front-ends.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rescale/singleinstance/internal/events"
)

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog      zerolog.Logger
	base      zerolog.Logger // zlog without the event bus hook
	mode      string         // "cli", "gui" or "custom"
	component string
	eventBus  *events.EventBus
	output    io.Writer
}

// NewLogger creates a new logger for the specified mode.
// When eventBus is non-nil, warnings and errors are mirrored onto it as
// LogEvents so a GUI can surface them.
func NewLogger(mode string, eventBus *events.EventBus) *Logger {
	var out io.Writer = os.Stderr
	if mode == "cli" {
		// CLI mode: stdout for logs, stderr is reserved for the spinner
		out = os.Stdout
	}
	l := &Logger{mode: mode, eventBus: eventBus}
	l.SetOutput(consoleWriter(out))
	return l
}

// NewLoggerWithWriter creates a logger that writes raw JSON lines to w.
// Tests use it to assert on log output.
func NewLoggerWithWriter(w io.Writer, eventBus *events.EventBus) *Logger {
	l := &Logger{mode: "custom", eventBus: eventBus}
	l.SetOutput(w)
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger("cli", nil)
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), base: zerolog.Nop(), mode: "nop", output: io.Discard}
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	child := *l
	child.base = l.base.With().Str("component", name).Logger()
	child.component = name
	child.attachHook()
	return &child
}

// WithEventBus returns a copy of l that mirrors warnings and errors onto bus.
func (l *Logger) WithEventBus(bus *events.EventBus) *Logger {
	child := *l
	child.eventBus = bus
	child.attachHook()
	return &child
}

func (l *Logger) attachHook() {
	l.zlog = l.base
	if l.eventBus != nil {
		l.zlog = l.base.Hook(busHook{bus: l.eventBus, component: l.component})
	}
}

// SetOutput changes the output writer for the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.output = w
	l.base = zerolog.New(w).With().Timestamp().Logger()
	if l.component != "" {
		l.base = l.base.With().Str("component", l.component).Logger()
	}
	l.attachHook()
}

// busHook forwards warn and error lines to the event bus.
type busHook struct {
	bus       *events.EventBus
	component string
}

func (h busHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.WarnLevel:
		h.bus.PublishLog(events.WarnLevel, h.component, msg)
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		h.bus.PublishLog(events.ErrorLevel, h.component, msg)
	}
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// ParseLevel maps a config/flag value ("debug", "info", "warn", "error") to a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zerolog.InfoLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
