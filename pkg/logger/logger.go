// Package logger configures the global zerolog logger used by the commands
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger holds the logging options shared by every command
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Setup installs the global logger writing to stderr
func (l Logger) Setup() error {
	return l.SetupWriter(os.Stderr)
}

// SetupWriter installs the global logger writing to w. The auto format
// picks console output only when w is a terminal.
func (l Logger) SetupWriter(w io.Writer) error {
	level := zerolog.InfoLevel
	if l.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(l.Level))
		if err != nil {
			return fmt.Errorf("failed to parse log level %q: %w", l.Level, err)
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	var out io.Writer
	switch strings.ToLower(l.Format) {
	case FormatJSON:
		out = w
	case FormatConsole:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !isTerminal(w)}
	case FormatAuto, "":
		if isTerminal(w) {
			out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		} else {
			out = w
		}
	default:
		return fmt.Errorf("unknown log format %q", l.Format)
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
