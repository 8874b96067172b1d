// Package resolvecmder provides the resolve command, which answers request
// descriptions from a recorded trace.
package resolvecmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/cmd/playback/cmdutil"
	"github.com/papercomputeco/playback/pkg/cliui"
	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/replay"
	"github.com/papercomputeco/playback/pkg/response"
	"github.com/papercomputeco/playback/pkg/trace"
)

type resolveCommander struct {
	traceFile   string
	exact       bool
	exactOnly   bool
	onExhausted string
}

const resolveLongDesc string = `Resolve requests against a recorded trace.

Each query is a request description as it appears in the trace, such as
"<-CMD:ls /tmp". Queries are resolved in order against one replay session, so
repeating a query walks through the generations recorded for it. With no
queries on the command line, one query is read per line from stdin.

A query without a literal match falls back to the closest recorded request of
the same kind unless --exact is set, in which case the command fails.

Examples:
  playback resolve -t run.replay '<-CMD:git status' '<-CMD:git status'
  playback resolve -t run.replay --exact < queries.txt`

const resolveShortDesc string = "Resolve requests against a recorded trace"

var resolveFlags = []string{
	config.FlagTraceFile,
	config.FlagExact,
	config.FlagOnExhausted,
}

func NewResolveCmd() *cobra.Command {
	cmder := &resolveCommander{}

	cmd := &cobra.Command{
		Use:   "resolve [query...]",
		Short: resolveShortDesc,
		Long:  resolveLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagTraceFile, &cmder.traceFile)
	config.AddBoolFlag(cmd, config.Flags, config.FlagExact, &cmder.exact)
	config.AddStringFlag(cmd, config.Flags, config.FlagOnExhausted, &cmder.onExhausted)
	cmd.Flags().BoolVar(&cmder.exactOnly, "exact-only", false, "Only answer literal matches and print nothing for the rest")

	return cmd
}

func (c *resolveCommander) run(cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.Load(cmd, resolveFlags)
	if err != nil {
		return err
	}

	log := cmdutil.Logger(cmd, cfg)
	sc, err := cmdutil.SessionConfig(cmd, cfg, "", log)
	if err != nil {
		return err
	}

	session, err := replay.NewSession(sc)
	if err != nil {
		return err
	}

	queries := args
	if len(queries) == 0 {
		queries, err = readQueries(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	reg := response.DefaultRegistry()
	out := cmd.OutOrStdout()
	for _, q := range queries {
		var responses []response.Response
		if c.exactOnly {
			responses, err = session.Matcher().ResolveExact(q, reg)
		} else {
			responses, err = session.Matcher().Resolve(q, reg)
		}
		if err != nil {
			return err
		}
		writeResponses(out, q, responses)
	}

	return nil
}

// readQueries reads one query per non-blank line.
func readQueries(r io.Reader) ([]string, error) {
	lines, err := trace.Lines(r)
	if err != nil {
		return nil, fmt.Errorf("reading queries: %w", err)
	}

	var queries []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			queries = append(queries, line)
		}
	}
	return queries, nil
}

func writeResponses(w io.Writer, query string, responses []response.Response) {
	fmt.Fprintln(w, cliui.Chunk(query))
	if len(responses) == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("<no recorded response>"))
		return
	}
	for _, r := range responses {
		fmt.Fprintf(w, "  %s\n", cliui.Chunk("->"+r.TypeID()+":"+r.Text()))
	}
}
