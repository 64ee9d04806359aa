// Package logging wires zerolog as the ambient logger the engine's Runner
// accepts via functional option (engine.WithLogger), never through a
// package-level global.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New builds a logger writing to w at the given level.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, the default when a caller
// wires nothing.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

// Console returns a human-readable, color-capable logger over stderr,
// suitable for examples and local runs.
func Console(level zerolog.Level) zerolog.Logger {
	out := colorable.NewColorable(os.Stderr)
	noColor := !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd())
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05", NoColor: noColor}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
