package filtercmder_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	filtercmder "github.com/papercomputeco/playback/cmd/playback/filter"
)

var _ = Describe("filter", func() {
	var dir string

	write := func(rel, content string) string {
		path := filepath.Join(dir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
		return path
	}

	run := func(args ...string) (string, error) {
		cmd := filtercmder.NewFilterCmd()
		cmd.Flags().String("config-dir", GinkgoT().TempDir(), "")
		cmd.Flags().Bool("debug", false, "")

		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		write("a.replay", "<-CMD:git status\n->OUT:clean\n")
		write("nested/deep/b.replay", "<-PYT:import numpy\n<-CMD:make all\n")
		write("nested/notes.txt", "<-CMD:git\n")
	})

	Describe("ExpandPatterns", func() {
		It("expands recursive globs in sorted order", func() {
			paths, err := filtercmder.ExpandPatterns([]string{filepath.Join(dir, "**", "*.replay")})
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{
				filepath.Join(dir, "a.replay"),
				filepath.Join(dir, "nested", "deep", "b.replay"),
			}))
		})

		It("keeps plain paths and drops duplicates", func() {
			a := filepath.Join(dir, "a.replay")
			paths, err := filtercmder.ExpandPatterns([]string{a, filepath.Join(dir, "*.replay"), "missing.replay"})
			Expect(err).NotTo(HaveOccurred())
			Expect(paths).To(Equal([]string{a, "missing.replay"}))
		})

		It("rejects invalid patterns", func() {
			_, err := filtercmder.ExpandPatterns([]string{filepath.Join(dir, "[")})
			Expect(err).To(HaveOccurred())
		})
	})

	It("reports intercepts per file as JSON", func() {
		out, err := run(filepath.Join(dir, "**", "*.replay"), "-c", "git,make", "-p", "numpy", "--json")
		Expect(err).NotTo(HaveOccurred())

		var results []struct {
			Path  string   `json:"path"`
			Items []string `json:"items"`
		}
		Expect(json.Unmarshal([]byte(out), &results)).To(Succeed())
		Expect(results).To(HaveLen(2))
		Expect(results[0].Items).To(Equal([]string{"git"}))
		Expect(results[1].Items).To(Equal([]string{"numpy", "make"}))
	})

	It("fails when a trace cannot be read", func() {
		out, err := run(filepath.Join(dir, "a.replay"), filepath.Join(dir, "missing.replay"), "-c", "git")
		Expect(err).To(MatchError(ContainSubstring("1 of 2 traces")))
		Expect(out).To(ContainSubstring("a.replay"))
	})

	It("requires intercepts", func() {
		_, err := run(filepath.Join(dir, "a.replay"))
		Expect(err).To(MatchError(ContainSubstring("no intercepts configured")))
	})
})
