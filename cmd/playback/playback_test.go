package playbackcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	playbackcmder "github.com/papercomputeco/playback/cmd/playback"
	"github.com/papercomputeco/playback/pkg/utils"
)

var _ = Describe("NewPlaybackCmd", func() {
	It("wires every subcommand", func() {
		cmd := playbackcmder.NewPlaybackCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("inspect", "resolve", "filter", "serve", "tail", "init", "config", "version"))
	})

	It("exposes the global flags", func() {
		cmd := playbackcmder.NewPlaybackCmd()
		Expect(cmd.PersistentFlags().Lookup("debug")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})

	It("resolves against a trace through the root command", func() {
		dir := GinkgoT().TempDir()
		trace := filepath.Join(dir, "run.replay")
		Expect(os.WriteFile(trace, []byte("<-CMD:date\n->OUT:Mon\n<-CMD:date\n->OUT:Tue\n"), 0o600)).To(Succeed())

		var out bytes.Buffer
		cmd := playbackcmder.NewPlaybackCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config-dir", dir, "resolve", "-t", trace, "<-CMD:date", "<-CMD:date"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Mon"))
		Expect(out.String()).To(ContainSubstring("Tue"))
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := playbackcmder.NewPlaybackCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		build := utils.CurrentBuild()
		Expect(out.String()).To(Equal("Version: " + build.Version + "\nSha: " + build.Sha + "\nBuilt at: " + build.Built + "\n"))
	})
})
