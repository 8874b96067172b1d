// Package initcmder provides the init command for initializing a local
// .playback directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/pkg/config"
)

const (
	dirName    = ".playback"
	tracesDir  = "traces"
	configFile = "config.toml"
)

const initLongDesc string = `Initialize a new .playback/ directory in the current working directory.

Creates a local .playback/ directory that takes precedence over the default
~/.playback/ directory. It holds a config.toml seeded with defaults and a
traces/ folder; traces kept there can be passed to commands by name.

Examples:
  playback init`

const initShortDesc string = "Initialize a local .playback/ directory"

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}

	return cmd
}

func runInit(w io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
		return nil
	}

	if err := os.MkdirAll(filepath.Join(dir, tracesDir), 0o755); err != nil {
		return fmt.Errorf("creating .playback directory: %w", err)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(config.NewDefaultConfig()); err != nil {
		return fmt.Errorf("writing %s: %w", configFile, err)
	}

	fmt.Fprintf(w, "Initialized .playback directory: %s\n", dir)
	return nil
}
