// Package configcmder provides the config command for managing persistent
// playback configuration stored in the .playback/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/pkg/cliui"
	"github.com/papercomputeco/playback/pkg/config"
)

const configLongDesc string = `Manage persistent playback configuration.

Configuration is stored as config.toml in the .playback/ directory and provides
default values for command flags. PLAYBACK_* environment variables override
the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  replay.file, replay.mode, replay.exact_matching, replay.on_exhausted,
  intercepts.commands, intercepts.python,
  api.listen, log.json, log.pretty, log.file

Use subcommands to get, set, or list configuration values:
  playback config set <key> <value>    Set a configuration value
  playback config get <key>            Get a configuration value
  playback config list                 List all configuration values

Examples:
  playback config set replay.on_exhausted first
  playback config set intercepts.commands git,curl
  playback config get replay.mode
  playback config list`

const configShortDesc string = "Manage persistent playback configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
		key, strings.Join(config.ValidConfigKeys(), ", "))
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func printTarget(w io.Writer, target string) {
	if target != "" {
		fmt.Fprintf(w, "\n  %s %s\n\n",
			cliui.KeyStyle.Render("Config file:"),
			cliui.DimStyle.Render(target),
		)
		return
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
}
