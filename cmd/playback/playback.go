// Package playbackcmder
package playbackcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/papercomputeco/playback/cmd/playback/config"
	filtercmder "github.com/papercomputeco/playback/cmd/playback/filter"
	initcmder "github.com/papercomputeco/playback/cmd/playback/init"
	inspectcmder "github.com/papercomputeco/playback/cmd/playback/inspect"
	resolvecmder "github.com/papercomputeco/playback/cmd/playback/resolve"
	servecmder "github.com/papercomputeco/playback/cmd/playback/serve"
	tailcmder "github.com/papercomputeco/playback/cmd/playback/tail"
	versioncmder "github.com/papercomputeco/playback/cmd/playback/version"
)

const playbackLongDesc string = `Playback replays recorded interaction traces.

A trace records requests a program made (shell commands, python attribute
access, server traffic) and the responses it got. Playback answers new
requests from the trace, falling back to the closest recorded request when
there is no literal match.

Commands:
  playback inspect <trace>         Show the request table of a trace
  playback resolve <trace> [req]   Resolve requests against a trace
  playback filter <trace>...       Find the intercepts traces exercise
  playback serve [trace]           Run the replay API server
  playback tail                    Follow requests a server resolves
  playback init                    Create a local .playback/ directory
  playback config                  Manage persistent configuration`

const playbackShortDesc string = "Playback - trace replay"

func NewPlaybackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "playback",
		Short:        playbackShortDesc,
		Long:         playbackLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .playback/ config directory")

	// Add subcommands
	cmd.AddCommand(inspectcmder.NewInspectCmd())
	cmd.AddCommand(resolvecmder.NewResolveCmd())
	cmd.AddCommand(filtercmder.NewFilterCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(tailcmder.NewTailCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
