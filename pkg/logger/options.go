package logger

import (
	"io"
	"log/slog"
)

// Format selects the handler New builds.
type Format string

const (
	// FormatText is slog's key=value text handler.
	FormatText Format = "text"

	// FormatJSON is slog's JSON handler, used for log files and log shipping.
	FormatJSON Format = "json"

	// FormatPretty is the charmbracelet/log handler for terminals.
	FormatPretty Format = "pretty"
)

// FormatFor maps the log.json and log.pretty settings to a Format. JSON wins
// when both are set so piped output stays parseable.
func FormatFor(json, pretty bool) Format {
	switch {
	case json:
		return FormatJSON
	case pretty:
		return FormatPretty
	default:
		return FormatText
	}
}

// Option configures a logger created with New.
type Option func(*config)

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(c *config) {
		c.level = level
	}
}

// WithDebug lowers the level to Debug. False leaves it at Info.
func WithDebug(debug bool) Option {
	if debug {
		return WithLevel(slog.LevelDebug)
	}
	return WithLevel(slog.LevelInfo)
}

// WithFormat picks the output handler.
func WithFormat(f Format) Option {
	return func(c *config) {
		c.format = f
	}
}

// WithWriter sets the destination. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writer = w
	}
}

// WithSource adds the calling file and line to every record.
func WithSource(source bool) Option {
	return func(c *config) {
		c.source = source
	}
}
