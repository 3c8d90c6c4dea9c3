// Package log builds the zerolog loggers used across the application.
package log

import (
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/tidwall/pretty"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
}

func newBaseLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.
		New(io.Discard).
		With().
		Str("app", "crate").
		Timestamp().
		Logger().
		Level(level)
}

// NewPretty returns a logger writing indented, colored JSON.
func NewPretty(w io.Writer, level zerolog.Level) zerolog.Logger {
	return newBaseLogger(level).Output(newPrettyWriter(w))
}

// NewPacked returns a logger writing one JSON object per line.
func NewPacked(w io.Writer, level zerolog.Level) zerolog.Logger {
	return newBaseLogger(level).Output(w)
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(s string) zerolog.Level {
	if s == "" {
		return zerolog.InfoLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// DefaultPath returns the log file location under the XDG state directory.
func DefaultPath() (string, error) {
	return xdg.StateFile(filepath.Join("crate", "crate.log"))
}

// OpenFile opens path for appending, creating parent directories as needed.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
}

func newPrettyWriter(out io.Writer) prettyWriter {
	return prettyWriter{out}
}

type prettyWriter struct {
	out io.Writer
}

func (p prettyWriter) Write(line []byte) (int, error) {
	if n, err := p.out.Write(pretty.Color(pretty.Pretty(line), nil)); nil != err {
		return n, err
	}
	return len(line), nil
}
