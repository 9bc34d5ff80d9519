// Package logging builds the command-line logger.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// Level picks the log level: quiet shows warnings and errors, verbose adds debug.
func Level(quiet, verbose bool) zerolog.Level {
	switch {
	case quiet:
		return zerolog.WarnLevel
	case verbose:
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// New returns a console logger without timestamps writing to w.
func New(w io.Writer, quiet, verbose bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}
	return zerolog.New(out).Level(Level(quiet, verbose))
}
