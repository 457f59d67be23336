package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. Usable before Init with sane defaults so
// tests and CLI helpers don't need setup.
var Log = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init configures the global logger from config. Pretty output is for
// development; production emits JSON lines.
func Init(level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(os.Stdout)
	if pretty {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	Log = ctx.With().Timestamp().Str("service", "queryproxy").Logger().Level(lvl)
}
