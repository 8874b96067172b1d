// Package inspectcmder provides the inspect command for examining a recorded
// trace the way the replay engine sees it.
package inspectcmder

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/papercomputeco/playback/cmd/playback/cmdutil"
	"github.com/papercomputeco/playback/pkg/cliui"
	"github.com/papercomputeco/playback/pkg/replay"
	"github.com/papercomputeco/playback/pkg/utils"
)

type inspectCommander struct {
	output  string
	full    bool
	traceIn string
}

// Report is the structured form of an inspected trace.
type Report struct {
	TraceFile string        `json:"trace_file" yaml:"trace_file"`
	Entries   []EntryReport `json:"entries" yaml:"entries"`
}

// EntryReport describes one recorded request.
type EntryReport struct {
	Key           string     `json:"key" yaml:"key"`
	Generations   [][]string `json:"generations" yaml:"generations"`
	Intermediates [][]string `json:"intermediates,omitempty" yaml:"intermediates,omitempty"`
}

const inspectLongDesc string = `Inspect a recorded trace.

Lists every recorded request in the order it was first seen, with the
responses recorded for each occurrence (its generations) and, for closing
attribute markers, the nested calls recorded between occurrences.

Examples:
  playback inspect run.replay
  playback inspect run.replay -o json
  playback inspect -o yaml --full nightly.replay`

const inspectShortDesc string = "Inspect a recorded trace"

const previewLen = 60

func NewInspectCmd() *cobra.Command {
	cmder := &inspectCommander{}

	cmd := &cobra.Command{
		Use:   "inspect [trace]",
		Short: inspectShortDesc,
		Long:  inspectLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				cmder.traceIn = args[0]
			}
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.output, "output", "o", "text", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&cmder.full, "full", false, "Show full response chunks in text output")

	return cmd
}

func (c *inspectCommander) run(cmd *cobra.Command) error {
	cfg, err := cmdutil.Load(cmd, nil)
	if err != nil {
		return err
	}

	log := cmdutil.Logger(cmd, cfg)
	sc, err := cmdutil.SessionConfig(cmd, cfg, c.traceIn, log)
	if err != nil {
		return err
	}

	store, err := replay.LoadFile(sc.TraceFile)
	if err != nil {
		return err
	}

	report := BuildReport(sc.TraceFile, store)
	out := cmd.OutOrStdout()

	switch c.output {
	case "text":
		return writeText(out, report, c.full)
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(report)
	default:
		return fmt.Errorf("unknown output format %q (available: text, json, yaml)", c.output)
	}
}

// BuildReport converts a store into its structured report.
func BuildReport(traceFile string, store *replay.Store) Report {
	report := Report{
		TraceFile: traceFile,
		Entries:   make([]EntryReport, 0, store.Len()),
	}

	for _, e := range store.Entries() {
		er := EntryReport{Key: e.Key()}
		for _, gen := range e.Generations() {
			er.Generations = append(er.Generations, append([]string{}, gen...))
		}
		for _, set := range e.Intermediates() {
			keys := make([]string, 0, len(set))
			for _, inter := range set {
				keys = append(keys, inter.Key())
			}
			er.Intermediates = append(er.Intermediates, keys)
		}
		report.Entries = append(report.Entries, er)
	}

	return report
}

func writeText(w io.Writer, report Report, full bool) error {
	fmt.Fprintf(w, "\n  %s\n", cliui.Field("Trace", report.TraceFile))
	fmt.Fprintf(w, "  %s\n\n", cliui.Field("Entries", len(report.Entries)))

	for _, e := range report.Entries {
		fmt.Fprintf(w, "  %s  %s\n",
			cliui.KeyStyle.Render(cliui.Chunk(e.Key)),
			cliui.DimStyle.Render(fmt.Sprintf("(%d generations)", len(e.Generations))),
		)

		for i, gen := range e.Generations {
			if len(gen) == 0 {
				fmt.Fprintf(w, "    %s %s\n", cliui.DimStyle.Render(fmt.Sprintf("#%d", i)), cliui.DimStyle.Render("<no response>"))
				continue
			}
			for j, chunk := range gen {
				label := "  "
				if j == 0 {
					label = fmt.Sprintf("#%d", i)
				}
				text := strings.ReplaceAll(chunk, "\n", "⏎")
				if !full {
					text = utils.Truncate(text, previewLen)
				}
				fmt.Fprintf(w, "    %s %s\n", cliui.DimStyle.Render(label), cliui.Chunk(text))
			}
		}

		for i, set := range e.Intermediates {
			fmt.Fprintf(w, "    %s %s\n",
				cliui.DimStyle.Render(fmt.Sprintf("nested %d→%d:", i, i+1)),
				strings.Join(set, ", "),
			)
		}
		fmt.Fprintln(w)
	}

	return nil
}
