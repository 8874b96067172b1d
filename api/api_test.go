package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/logger"
	"github.com/papercomputeco/playback/pkg/replay"
)

func writeTraceFile(dir string, lines ...string) string {
	path := filepath.Join(dir, "trace.replay")
	Expect(os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)).To(Succeed())
	return path
}

func doJSON(server *Server, method, path string, body any) *http.Response {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.app.Test(req)
	Expect(err).NotTo(HaveOccurred())
	return resp
}

func decode(resp *http.Response, v any) {
	data, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(data, v)).To(Succeed())
}

var _ = Describe("API server", func() {
	var (
		dir       string
		traceFile string
		server    *Server
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		traceFile = writeTraceFile(dir,
			"<-CMD:ls /tmp",
			"->OUT:first",
			"<-CMD:ls /tmp",
			"->OUT:second",
			"->EXC:1",
		)

		var err error
		server, err = NewServer(Config{
			ListenAddr: ":0",
			Default:    replay.SessionConfig{TraceFile: traceFile},
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	It("answers ping", func() {
		resp := doJSON(server, http.MethodGet, "/ping", nil)
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

		var body string
		decode(resp, &body)
		Expect(body).To(Equal("pong"))
	})

	It("fails to start when the default trace is missing", func() {
		_, err := NewServer(Config{
			Default: replay.SessionConfig{TraceFile: filepath.Join(dir, "missing.replay")},
		}, nil)
		Expect(err).To(HaveOccurred())
	})

	Describe("resolve", func() {
		It("replays generations in order on the default session", func() {
			var first, second ResolveResponse

			resp := doJSON(server, http.MethodPost, "/sessions/default/resolve", ResolveRequest{Description: "<-CMD:ls /tmp"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			decode(resp, &first)
			Expect(first.Matched).To(BeTrue())
			Expect(first.Key).To(Equal("<-CMD:ls /tmp"))
			Expect(first.Responses).To(Equal([]ResponseBody{{Type: "OUT", Text: "first"}}))

			resp = doJSON(server, http.MethodPost, "/sessions/default/resolve", ResolveRequest{Description: "<-CMD:ls /tmp"})
			decode(resp, &second)
			Expect(second.Responses).To(Equal([]ResponseBody{
				{Type: "OUT", Text: "second"},
				{Type: "EXC", Text: "1"},
			}))
		})

		It("reports no match for an exact-only miss", func() {
			var result ResolveResponse
			resp := doJSON(server, http.MethodPost, "/sessions/default/resolve", ResolveRequest{Description: "<-CMD:ls /var", Exact: true})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			decode(resp, &result)
			Expect(result.Matched).To(BeFalse())
			Expect(result.Responses).To(BeEmpty())
		})

		It("returns 409 on a mismatch with exact matching enforced", func() {
			resp := doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{
				TraceFile:     traceFile,
				ExactMatching: true,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var created CreateSessionResponse
			decode(resp, &created)

			resp = doJSON(server, http.MethodPost, "/sessions/"+created.ID+"/resolve", ResolveRequest{Description: "<-CMD:pwd"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusConflict))

			var body ErrorResponse
			decode(resp, &body)
			Expect(body.Error).To(ContainSubstring("<-CMD:pwd"))
		})

		It("returns 422 and keeps the cursor when a payload does not decode", func() {
			bad := filepath.Join(dir, "bad.replay")
			Expect(os.WriteFile(bad, []byte("<-CMD:ls\n->EXC:notanint\n<-CMD:ls\n->EXC:0\n"), 0o600)).To(Succeed())

			resp := doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{TraceFile: bad})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
			var created CreateSessionResponse
			decode(resp, &created)

			for range 2 {
				resp = doJSON(server, http.MethodPost, "/sessions/"+created.ID+"/resolve", ResolveRequest{Description: "<-CMD:ls"})
				Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))

				var body ErrorResponse
				decode(resp, &body)
				Expect(body.Error).To(ContainSubstring("notanint"))
			}

			var summary SessionSummary
			decode(doJSON(server, http.MethodGet, "/sessions/"+created.ID, nil), &summary)
			Expect(summary.Entries).To(HaveLen(1))
			Expect(summary.Entries[0].Cursor).To(Equal(0))
		})

		It("requires a description", func() {
			resp := doJSON(server, http.MethodPost, "/sessions/default/resolve", ResolveRequest{})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 404 for unknown sessions", func() {
			resp := doJSON(server, http.MethodPost, "/sessions/nope/resolve", ResolveRequest{Description: "<-CMD:ls"})
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("sessions", func() {
		It("creates independent sessions", func() {
			resp := doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{TraceFile: traceFile})
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var created CreateSessionResponse
			decode(resp, &created)
			Expect(created.ID).NotTo(Equal(DefaultSessionID))
			Expect(created.Entries).To(Equal(1))

			doJSON(server, http.MethodPost, "/sessions/default/resolve", ResolveRequest{Description: "<-CMD:ls /tmp"})

			var summary SessionSummary
			decode(doJSON(server, http.MethodGet, "/sessions/"+created.ID, nil), &summary)
			Expect(summary.Entries).To(HaveLen(1))
			Expect(summary.Entries[0].Cursor).To(Equal(0))
			Expect(summary.Entries[0].Remaining).To(Equal(2))
			Expect(summary.OnExhausted).To(Equal("last"))
		})

		It("lists sessions", func() {
			doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{TraceFile: traceFile})

			var summaries []SessionSummary
			decode(doJSON(server, http.MethodGet, "/sessions", nil), &summaries)
			Expect(summaries).To(HaveLen(2))
			Expect(summaries[0].ID).To(Equal(DefaultSessionID))
		})

		It("validates create requests", func() {
			Expect(doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{}).StatusCode).
				To(Equal(fiber.StatusBadRequest))
			Expect(doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{TraceFile: traceFile, Mode: "rewind"}).StatusCode).
				To(Equal(fiber.StatusBadRequest))
			Expect(doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{TraceFile: traceFile, OnExhausted: "never"}).StatusCode).
				To(Equal(fiber.StatusBadRequest))
			Expect(doJSON(server, http.MethodPost, "/sessions", CreateSessionRequest{TraceFile: filepath.Join(dir, "nope")}).StatusCode).
				To(Equal(fiber.StatusBadRequest))
		})

		It("deletes sessions", func() {
			resp := doJSON(server, http.MethodDelete, "/sessions/default", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			resp = doJSON(server, http.MethodGet, "/sessions/default", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))

			resp = doJSON(server, http.MethodDelete, "/sessions/default", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("Reload", func() {
		It("picks up a rewritten trace and resets cursors", func() {
			doJSON(server, http.MethodPost, "/sessions/default/resolve", ResolveRequest{Description: "<-CMD:ls /tmp"})

			writeTraceFile(dir, "<-CMD:pwd", "->OUT:/root")
			Expect(server.Reload(DefaultSessionID)).To(Succeed())

			var summary SessionSummary
			decode(doJSON(server, http.MethodGet, "/sessions/default", nil), &summary)
			Expect(summary.Entries).To(Equal([]EntrySummary{
				{Key: "<-CMD:pwd", Generations: 1, Cursor: 0, Remaining: 1},
			}))
		})

		It("keeps the old state when the trace disappears", func() {
			Expect(os.Remove(traceFile)).To(Succeed())
			Expect(server.Reload(DefaultSessionID)).NotTo(Succeed())

			var summary SessionSummary
			decode(doJSON(server, http.MethodGet, "/sessions/default", nil), &summary)
			Expect(summary.Entries[0].Key).To(Equal("<-CMD:ls /tmp"))
		})

		It("is exposed over HTTP", func() {
			resp := doJSON(server, http.MethodPost, "/sessions/default/reload", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			resp = doJSON(server, http.MethodPost, "/sessions/nope/reload", nil)
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("reports unknown sessions", func() {
			err := server.Reload("nope")
			Expect(err).To(MatchError(SessionNotFoundError{ID: "nope"}))
		})
	})
})
