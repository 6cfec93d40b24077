// Package logging constructs the slog loggers used across framecull.
//
// Two output formats are supported: a console handler that renders
// timestamped key=value lines for interactive runs, and a JSON handler for
// machine consumption. Format and level come from configuration; when a log
// directory is configured, output also lands in framecull.log there.
package logging
