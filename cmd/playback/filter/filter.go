// Package filtercmder provides the filter command, which reports the
// intercepted commands and attributes that recorded traces exercise.
package filtercmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/cmdutil"
	"github.com/papercomputeco/playback/pkg/cliui"
	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/intercept"
	"github.com/papercomputeco/playback/pkg/scan"
)

type filterCommander struct {
	commands []string
	python   []string
	workers  uint
	jsonOut  bool
}

const filterLongDesc string = `Report which intercepts recorded traces exercise.

Arguments are trace files or glob patterns ("**" matches across
directories). Every matching file is scanned for the intercepted command-line
programs and python attributes, and the names found are printed per file in
the order they first appear.

Intercepts default to the intercepts.commands and intercepts.python config
keys.

Examples:
  playback filter 'traces/**/*.replay' -c git,make
  playback filter run.replay -p requests,numpy --json`

const filterShortDesc string = "Report which intercepts recorded traces exercise"

var filterFlags = []string{
	config.FlagCommands,
	config.FlagPython,
}

func NewFilterCmd() *cobra.Command {
	cmder := &filterCommander{}

	cmd := &cobra.Command{
		Use:   "filter <trace|glob>...",
		Short: filterShortDesc,
		Long:  filterLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	config.AddStringSliceFlag(cmd, config.Flags, config.FlagCommands, &cmder.commands)
	config.AddStringSliceFlag(cmd, config.Flags, config.FlagPython, &cmder.python)
	cmd.Flags().UintVarP(&cmder.workers, "workers", "w", 0, "Number of files scanned concurrently (default 3)")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Emit results as JSON")

	return cmd
}

func (c *filterCommander) run(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.Load(cmd, filterFlags)
	if err != nil {
		return err
	}
	log := cmdutil.Logger(cmd, cfg)

	items := intercept.SourceItems(cfg)
	if len(items) == 0 {
		return errors.New("no intercepts configured (use --commands, --python or set intercepts.commands)")
	}

	paths, err := ExpandPatterns(args)
	if err != nil {
		return err
	}
	log.Debug("scanning traces", "files", len(paths), "intercepts", len(items))

	results, err := scan.Files(context.Background(), &scan.Config{
		Items:      items,
		NumWorkers: c.workers,
		Logger:     log,
	}, paths)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if c.jsonOut {
		return writeJSON(out, results)
	}
	return writeText(out, results)
}

// ExpandPatterns resolves each argument to the files it names. Arguments
// without glob metacharacters are kept as given so a missing file is reported
// by the scan. Duplicates are dropped and the order of first mention is kept.
func ExpandPatterns(patterns []string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			add(pattern)
			continue
		}

		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid glob pattern %q", pattern)
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}

	return paths, nil
}

type jsonResult struct {
	Path  string   `json:"path"`
	Items []string `json:"items"`
	Error string   `json:"error,omitempty"`
}

func writeJSON(w io.Writer, results []scan.Result) error {
	out := make([]jsonResult, 0, len(results))
	for _, r := range results {
		jr := jsonResult{Path: r.Path, Items: r.Items}
		if jr.Items == nil {
			jr.Items = []string{}
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		out = append(out, jr)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeText(w io.Writer, results []scan.Result) error {
	failed := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintf(w, "%s %s %s\n", cliui.FailMark, r.Path, cliui.DimStyle.Render(r.Err.Error()))
		case len(r.Items) == 0:
			fmt.Fprintf(w, "%s %s %s\n", cliui.SuccessMark, r.Path, cliui.DimStyle.Render("<none>"))
		default:
			fmt.Fprintf(w, "%s %s %s\n", cliui.SuccessMark, r.Path, cliui.ValueStyle.Render(strings.Join(r.Items, ", ")))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d traces could not be read", failed, len(results))
	}
	return nil
}
