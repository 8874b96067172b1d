// Package servecmder provides the serve command for running the replay API.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/api"
	"github.com/papercomputeco/playback/cmd/playback/cmdutil"
	"github.com/papercomputeco/playback/pkg/cliui"
	"github.com/papercomputeco/playback/pkg/config"
)

type ServeCommander struct {
	listen      string
	traceFile   string
	mode        string
	exact       bool
	onExhausted string
	watch       bool
	logger      *slog.Logger
}

const serveLongDesc string = `Run the playback API server.

Clients create replay sessions from trace files and resolve requests against
them over HTTP. When a trace is given (as an argument, with --trace or through
replay.file) it is loaded at startup as the "default" session.

With --watch the default session is reloaded whenever its trace file changes.

Endpoints:
  GET    /ping
  GET    /sessions
  POST   /sessions
  GET    /sessions/:id
  POST   /sessions/:id/resolve
  POST   /sessions/:id/reload
  DELETE /sessions/:id
  GET    /events                    (Server-Sent Events, ?session=<id>)`

const serveShortDesc string = "Run the playback API server"

var serveFlags = []string{
	config.FlagAPIListen,
	config.FlagTraceFile,
	config.FlagMode,
	config.FlagExact,
	config.FlagOnExhausted,
	config.FlagCommands,
	config.FlagPython,
	config.FlagLogJSON,
	config.FlagLogPretty,
	config.FlagLogFile,
}

// reloadDebounce coalesces bursts of write events from editors and recorders.
const reloadDebounce = 200 * time.Millisecond

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve [trace]",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.traceFile = args[0]
			}
			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Flags, config.FlagTraceFile, &cmder.traceFile)
	config.AddStringFlag(cmd, config.Flags, config.FlagMode, &cmder.mode)
	config.AddBoolFlag(cmd, config.Flags, config.FlagExact, &cmder.exact)
	config.AddStringFlag(cmd, config.Flags, config.FlagOnExhausted, &cmder.onExhausted)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagCommands, new([]string))
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagPython, new([]string))
	config.AddBoolFlag(cmd, config.Flags, config.FlagLogJSON, new(bool))
	config.AddBoolFlag(cmd, config.Flags, config.FlagLogPretty, new(bool))
	config.AddStringFlag(cmd, config.Flags, config.FlagLogFile, new(string))
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Reload the default session when its trace file changes")

	return cmd
}

func (c *ServeCommander) run(cmd *cobra.Command) error {
	cfg, err := cmdutil.Load(cmd, serveFlags)
	if err != nil {
		return err
	}
	if c.traceFile != "" {
		cfg.Replay.File = c.traceFile
	}

	c.logger = cmdutil.Logger(cmd, cfg)

	apiConfig := api.Config{
		ListenAddr: cfg.API.Listen,
		Intercepts: cfg,
	}

	if cfg.Replay.File != "" {
		sc, err := cmdutil.SessionConfig(cmd, cfg, "", c.logger)
		if err != nil {
			return err
		}
		apiConfig.Default = sc
	}

	if c.watch && apiConfig.Default.TraceFile == "" {
		return errors.New("--watch needs a trace file")
	}

	var server *api.Server
	err = cliui.Step(cmd.ErrOrStderr(), "Starting playback API on "+apiConfig.ListenAddr, func() error {
		var err error
		server, err = api.NewServer(apiConfig, c.logger)
		return err
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 2)

	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	if c.watch {
		go func() {
			if err := WatchTrace(ctx, apiConfig.Default.TraceFile, c.logger, func() error {
				return server.Reload(api.DefaultSessionID)
			}); err != nil {
				errChan <- err
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		_ = server.Shutdown()
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// WatchTrace calls reload after path is written or recreated, until ctx is
// done. The parent directory is watched so that recorders replacing the file
// atomically are seen too. Reload failures are logged and watching goes on.
func WatchTrace(ctx context.Context, path string, log *slog.Logger, reload func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating trace watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching trace dir: %w", err)
	}

	target := filepath.Clean(path)
	timer := time.NewTimer(reloadDebounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(reloadDebounce)
		case <-timer.C:
			if err := reload(); err != nil {
				log.Warn("trace reload failed", "trace_file", path, "error", err)
				continue
			}
			log.Info("trace reloaded", "trace_file", path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("trace watcher error: %w", err)
		}
	}
}
