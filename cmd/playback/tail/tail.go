// Package tailcmder provides the tail command, which follows the resolved
// request events of a running playback API server.
package tailcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/pkg/cliui"
	"github.com/papercomputeco/playback/pkg/eventstream"
	"github.com/papercomputeco/playback/pkg/sse"
)

type tailCommander struct {
	server  string
	session string
	raw     string
	json    bool
}

const tailLongDesc string = `Follow the requests a playback API server resolves.

Connects to the server's /events stream and prints one line per resolved
request: the session, the request, and the recorded request that answered it.
Fuzzy matches are marked with "~". Use --raw to also keep a verbatim copy of
the stream.

Examples:
  playback tail
  playback tail --server http://localhost:9000 --session default
  playback tail --json --raw events.sse`

const tailShortDesc string = "Follow resolved requests of a running server"

const defaultServer = "http://localhost:8090"

func NewTailCmd() *cobra.Command {
	cmder := &tailCommander{}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: tailShortDesc,
		Long:  tailLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&cmder.server, "server", "s", defaultServer, "Playback API server URL")
	cmd.Flags().StringVar(&cmder.session, "session", "", "Only follow this session")
	cmd.Flags().StringVar(&cmder.raw, "raw", "", "Append the raw event stream to this file")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print each event as a JSON line")

	return cmd
}

func (c *tailCommander) run(ctx context.Context, out io.Writer) error {
	endpoint, err := eventsURL(c.server, c.session)
	if err != nil {
		return err
	}

	var dest io.Writer = io.Discard
	if c.raw != "" {
		f, err := os.OpenFile(c.raw, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("opening raw stream file: %w", err)
		}
		defer f.Close()
		dest = f
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("event stream returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	reader := sse.NewTeeReader(resp.Body, dest)
	for {
		ev, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		if ev == nil {
			return nil
		}
		if ev.Type != eventstream.EventTypeRequestResolved {
			continue
		}

		if c.json {
			fmt.Fprintln(out, ev.Data)
			continue
		}

		var resolved eventstream.ResolvedEvent
		if err := json.Unmarshal([]byte(ev.Data), &resolved); err != nil {
			return fmt.Errorf("decoding event %s: %w", ev.ID, err)
		}
		writeEvent(out, &resolved)
	}
}

// eventsURL joins the server base URL with the events path.
func eventsURL(server, session string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("parsing server URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.New("server URL needs a scheme and host, e.g. http://localhost:8090")
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/events"
	if session != "" {
		q := u.Query()
		q.Set("session", session)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func writeEvent(w io.Writer, ev *eventstream.ResolvedEvent) {
	session := cliui.DimStyle.Render(ev.Session)

	switch {
	case ev.Error != "":
		fmt.Fprintf(w, "%s %s %s  %s\n", cliui.FailMark, session, cliui.Chunk(ev.Description), ev.Error)
		return
	case !ev.Matched:
		fmt.Fprintf(w, "%s %s %s  %s\n", cliui.DimStyle.Render("-"), session, cliui.Chunk(ev.Description),
			cliui.DimStyle.Render("<no recorded response>"))
		return
	case ev.Exact:
		fmt.Fprintf(w, "%s %s %s\n", cliui.SuccessMark, session, cliui.Chunk(ev.Description))
	default:
		fmt.Fprintf(w, "%s %s %s ~ %s\n", cliui.SuccessMark, session, cliui.Chunk(ev.Description), ev.Key)
	}

	for _, chunk := range ev.Responses {
		fmt.Fprintf(w, "    %s\n", cliui.Chunk(chunk))
	}
}
