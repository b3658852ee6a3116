// Package logging constructs slog loggers for airmatch.
//
// Two output formats are supported: a console text format for interactive
// use and a JSON format for machine consumption. The "auto" format picks
// between them based on whether stdout is a terminal.
package logging
