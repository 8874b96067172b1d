package replay_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/playback/pkg/intercept"
	"github.com/papercomputeco/playback/pkg/replay"
	"github.com/papercomputeco/playback/pkg/response"
)

type fakeTraffic struct {
	desc   string
	marker string
}

func (f fakeTraffic) Description() string { return f.desc }
func (f fakeTraffic) HasInfo() bool       { return f.desc != "" }

func (f fakeTraffic) IsMarkedForReplay(names map[string]struct{}) bool {
	_, ok := names[f.marker]
	return ok
}

type staticIntercepts map[string][]string

func (s staticIntercepts) Intercepts(kind string) []string {
	return s[kind]
}

func writeTrace(lines ...string) string {
	path := filepath.Join(GinkgoT().TempDir(), "session.replay")
	Expect(os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Session", func() {
	var reg *response.Registry

	BeforeEach(func() {
		reg = response.DefaultRegistry()
	})

	It("fails when the trace file cannot be read", func() {
		_, err := replay.NewSession(replay.SessionConfig{
			TraceFile: filepath.Join(GinkgoT().TempDir(), "missing.replay"),
		})
		Expect(err).To(HaveOccurred())
	})

	It("is never active without a trace", func() {
		s, err := replay.NewSession(replay.SessionConfig{})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Mode()).To(Equal(replay.ModeReplay))
		Expect(s.IsActiveForAll()).To(BeFalse())
		Expect(s.IsActiveFor(fakeTraffic{desc: "<-CMD:ls"})).To(BeFalse())
	})

	It("is active for everything in replay mode", func() {
		s, err := replay.NewSession(replay.SessionConfig{
			TraceFile: writeTrace("<-CMD:ls", "->OUT:x"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(s.IsActiveForAll()).To(BeTrue())
		Expect(s.IsActiveFor(fakeTraffic{desc: "<-CMD:whatever"})).To(BeTrue())
	})

	Describe("replay_old_record_new", func() {
		var s *replay.Session

		BeforeEach(func() {
			var err error
			s, err = replay.NewSession(replay.SessionConfig{
				TraceFile: writeTrace(
					"<-CMD:git status",
					"->OUT:clean",
					"<-PYT:import requests",
					"->RET:Instance('Session', 'http')",
				),
				Mode: replay.ModeReplayOldRecordNew,
				Intercepts: staticIntercepts{
					intercept.KindCommandLine: {"git", "svn"},
					intercept.KindPython:      {"requests", "numpy"},
				},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("finds the intercepts the trace exercises", func() {
			Expect(s.ReplayItems()).To(Equal([]string{"git", "requests"}))
			Expect(s.InstanceNames()).To(Equal([]string{"http"}))
		})

		It("is only active for marked traffic", func() {
			Expect(s.IsActiveForAll()).To(BeFalse())
			Expect(s.IsActiveFor(fakeTraffic{desc: "<-CMD:git log", marker: "git"})).To(BeTrue())
			Expect(s.IsActiveFor(fakeTraffic{desc: "<-PYT:x", marker: "http"})).To(BeTrue())
			Expect(s.IsActiveFor(fakeTraffic{desc: "<-CMD:svn up", marker: "svn"})).To(BeFalse())
		})
	})

	Describe("ReadReplayResponses", func() {
		var s *replay.Session

		BeforeEach(func() {
			var err error
			s, err = replay.NewSession(replay.SessionConfig{
				TraceFile: writeTrace(
					"<-CMD:ls /tmp",
					"->OUT:listing",
					"->EXC:0",
				),
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the recorded responses", func() {
			responses, err := s.ReadReplayResponses(fakeTraffic{desc: "<-CMD:ls /tmp"}, reg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(Equal([]response.Response{
				response.Raw{Type: response.TypeStdout, Payload: "listing"},
				response.ExitCode{Code: 0},
			}))
		})

		It("returns nothing for traffic without information", func() {
			responses, err := s.ReadReplayResponses(fakeTraffic{}, reg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(BeNil())
		})

		It("falls back to fuzzy matching unless exactOnly is set", func() {
			responses, err := s.ReadReplayResponses(fakeTraffic{desc: "<-CMD:ls /var"}, reg, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(BeNil())

			responses, err = s.ReadReplayResponses(fakeTraffic{desc: "<-CMD:ls /var"}, reg, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(responses).To(HaveLen(2))
		})
	})

	It("surfaces mismatches when exact matching is enforced", func() {
		s, err := replay.NewSession(replay.SessionConfig{
			TraceFile:     writeTrace("<-CMD:ls", "->OUT:x"),
			ExactMatching: true,
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = s.ReadReplayResponses(fakeTraffic{desc: "<-CMD:pwd"}, reg, false)
		Expect(err).To(MatchError(replay.ErrMismatch))
	})

	Describe("FindResponseStartingWith", func() {
		It("peeks at the first response of a matching request", func() {
			s, err := replay.NewSession(replay.SessionConfig{
				TraceFile: writeTrace(
					"<-PYT:empty.attr",
					"<-PYT:os.getcwd",
					"->RET:/home/user",
					"->RET:ignored",
				),
			})
			Expect(err).NotTo(HaveOccurred())

			text, ok := s.FindResponseStartingWith("os.")
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal("/home/user"))

			entry, _ := s.Store().Get("<-PYT:os.getcwd")
			Expect(entry.Cursor()).To(Equal(0))
		})

		It("skips requests that recorded no response", func() {
			s, err := replay.NewSession(replay.SessionConfig{
				TraceFile: writeTrace("<-PYT:os.sep", "<-PYT:os.name", "->RET:posix"),
			})
			Expect(err).NotTo(HaveOccurred())

			text, ok := s.FindResponseStartingWith("os.")
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal("posix"))
		})

		It("reports a miss", func() {
			s, err := replay.NewSession(replay.SessionConfig{
				TraceFile: writeTrace("<-PYT:os.sep", "->RET:/"),
			})
			Expect(err).NotTo(HaveOccurred())

			_, ok := s.FindResponseStartingWith("sys.")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ParseMode", func() {
		It("defaults to replay", func() {
			Expect(replay.ParseMode("")).To(Equal(replay.ModeReplay))
		})

		It("rejects unknown modes", func() {
			_, err := replay.ParseMode("rewind")
			Expect(err).To(HaveOccurred())
		})
	})
})
