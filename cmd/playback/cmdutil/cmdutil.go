// Package cmdutil holds the setup shared by playback subcommands: resolving
// layered configuration and building the logger.
package cmdutil

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/dotdir"
	"github.com/papercomputeco/playback/pkg/logger"
	"github.com/papercomputeco/playback/pkg/replay"
)

// Load resolves the config for cmd: flags named by registryKeys override
// PLAYBACK_* environment variables, which override config.toml and defaults.
func Load(cmd *cobra.Command, registryKeys []string) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)

	return config.FromViper(v), nil
}

// Logger builds the command logger. Output goes to stderr so that command
// results on stdout stay machine readable. Pretty output is used when stderr
// is a terminal unless JSON logs were asked for.
func Logger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return LoggerTo(cmd, cfg, os.Stderr, logger.IsTerminal(os.Stderr))
}

// LoggerTo is Logger with an explicit writer and terminal flag. When
// log.file is set, records are also appended to it as JSON at debug level.
func LoggerTo(cmd *cobra.Command, cfg *config.Config, w io.Writer, tty bool) *slog.Logger {
	debug, _ := cmd.Flags().GetBool("debug")

	console := logger.New(
		logger.WithWriter(w),
		logger.WithDebug(debug),
		logger.WithFormat(logger.FormatFor(cfg.Log.JSON, cfg.Log.Pretty || tty)),
	)
	if cfg.Log.File == "" {
		return console
	}

	// The file stays open for the life of the process.
	f, err := os.OpenFile(cfg.Log.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		console.Warn("could not open log file", "path", cfg.Log.File, "error", err)
		return console
	}

	file := logger.New(
		logger.WithWriter(f),
		logger.WithFormat(logger.FormatJSON),
		logger.WithDebug(true),
		logger.WithSource(true),
	)
	return logger.Tee(console, file)
}

// SessionConfig turns the replay section of cfg into a session config for
// traceFile. A bare trace name is looked up in the playback traces folder.
func SessionConfig(cmd *cobra.Command, cfg *config.Config, traceFile string, log *slog.Logger) (replay.SessionConfig, error) {
	mode, err := replay.ParseMode(cfg.Replay.Mode)
	if err != nil {
		return replay.SessionConfig{}, err
	}

	policy, err := replay.ParseExhaustion(cfg.Replay.OnExhausted)
	if err != nil {
		return replay.SessionConfig{}, err
	}

	if traceFile == "" {
		traceFile = cfg.Replay.File
	}
	if traceFile == "" {
		return replay.SessionConfig{}, errors.New("no trace file given (pass one or set replay.file)")
	}

	configDir, _ := cmd.Flags().GetString("config-dir")

	return replay.SessionConfig{
		TraceFile:     dotdir.NewManager().ResolveTrace(configDir, traceFile),
		Mode:          mode,
		ExactMatching: cfg.Replay.ExactMatching,
		Exhaustion:    policy,
		Intercepts:    cfg,
		Logger:        log,
	}, nil
}
