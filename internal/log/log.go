// Package log provides structured, colored logging for the wallet simulator.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance.
var Logger zerolog.Logger

// Component loggers for different parts of the system.
var (
	Provider  zerolog.Logger
	API       zerolog.Logger
	Fees      zerolog.Logger
	Nonce     zerolog.Logger
	Broadcast zerolog.Logger
	Confirm   zerolog.Logger
	RPC       zerolog.Logger
	Wallet    zerolog.Logger
	Storage   zerolog.Logger
)

// components binds each component logger to its field value.
var components = []struct {
	name   string
	logger *zerolog.Logger
}{
	{"provider", &Provider},
	{"api", &API},
	{"fees", &Fees},
	{"nonce", &Nonce},
	{"broadcast", &Broadcast},
	{"confirm", &Confirm},
	{"rpc", &RPC},
	{"wallet", &Wallet},
	{"storage", &Storage},
}

var (
	fileMu sync.Mutex
	file   *os.File
)

func init() {
	// stdout is reserved for command output.
	SetLogger(NewConsoleLogger(os.Stderr, "info"))
}

// Init configures the global logger. When file is non-empty, logs go to
// the console (colored or JSON) and to the file as JSON. A previously
// opened log file is closed.
func Init(level string, jsonOutput bool, path string) error {
	var console io.Writer = os.Stderr
	if !jsonOutput {
		console = consoleWriter(os.Stderr)
	}

	var f *os.File
	out := console
	if path != "" {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		out = zerolog.MultiLevelWriter(console, f)
	}

	SetLogger(newLogger(out, level))
	swapFile(f)
	return nil
}

// Close closes the log file opened by Init, if any. Console logging
// continues.
func Close() error {
	SetLogger(NewConsoleLogger(os.Stderr, Logger.GetLevel().String()))
	return swapFile(nil)
}

func swapFile(f *os.File) error {
	fileMu.Lock()
	defer fileMu.Unlock()
	old := file
	file = f
	if old != nil {
		return old.Close()
	}
	return nil
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
}

func newLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(consoleWriter(w), level)
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return newLogger(w, level)
}

// parseLevel converts a string level to zerolog.Level. Unknown names mean
// info.
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithComponent returns a logger with a component field.
func WithComponent(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

// SetLogger replaces the global logger and rebuilds component loggers.
// Tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	Logger = l
	for _, c := range components {
		*c.logger = WithComponent(c.name)
	}
}
