package log

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type LoggerType uint8

const (
	ConsoleLogger LoggerType = iota
	JSONLogger
)

// Component loggers. Init replaces them; until then they discard
// everything, so library use without logging setup stays silent.
var (
	Root   = zerolog.Nop()
	DB     = zerolog.Nop()
	Remote = zerolog.Nop()
	Server = zerolog.Nop()
	Batch  = zerolog.Nop()
)

// Options for Init.
type Options struct {
	// Minimum level emitted, default Info.
	LogLevel zerolog.Level
	Type     LoggerType
}

func ParseLogLevel(loglevel string) (zerolog.Level, error) {
	return zerolog.ParseLevel(loglevel)
}

func Init(opts Options) {
	switch opts.Type {
	case ConsoleLogger:
		cw := newConsoleWriter()
		Root = zerolog.New(cw).Level(opts.LogLevel).
			With().Timestamp().Logger()
	default:
		Root = zerolog.New(os.Stdout).Level(opts.LogLevel).
			With().Timestamp().Logger()
	}
	DB = Root.With().Str("component", "db").Logger()
	Remote = Root.With().Str("component", "remote").Logger()
	Server = Root.With().Str("component", "server").Logger()
	Batch = Root.With().Str("component", "batch").Logger()
}

func newConsoleWriter() zerolog.ConsoleWriter {
	cw := zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true, TimeFormat: time.RFC3339}

	cw.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	return cw
}
