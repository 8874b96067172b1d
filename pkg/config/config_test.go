package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/playback/pkg/config"
	"github.com/papercomputeco/playback/pkg/intercept"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			data := `version = 0

[replay]
file = "/tmp/run.replay"
mode = "replay_old_record_new"
exact_matching = true
on_exhausted = "first"

[intercepts]
commands = ["git", "make"]
python = ["requests"]

[api]
listen = ":9091"

[log]
json = true
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Replay).To(Equal(config.ReplayConfig{
				File:          "/tmp/run.replay",
				Mode:          "replay_old_record_new",
				ExactMatching: true,
				OnExhausted:   "first",
			}))
			Expect(cfg.Intercepted.Commands).To(Equal([]string{"git", "make"}))
			Expect(cfg.Intercepted.Python).To(Equal([]string{"requests"}))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Log.JSON).To(BeTrue())
			Expect(cfg.Log.Pretty).To(BeFalse())
		})

		It("fills unset fields with defaults", func() {
			data := `[replay]
file = "run.replay"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Replay.File).To(Equal("run.replay"))
			Expect(cfg.Replay.Mode).To(Equal("replay"))
			Expect(cfg.Replay.OnExhausted).To(Equal("last"))
			Expect(cfg.API.Listen).To(Equal(config.NewDefaultConfig().API.Listen))
		})

		It("returns an error for invalid TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[replay\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("parsing config TOML"))
		})
	})

	Describe("SaveConfig", func() {
		It("refuses a nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})

		It("round-trips through LoadConfig", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Replay.File = "/srv/trace.replay"
			cfg.Intercepted.Python = []string{"os", "sys"}
			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets and gets every key", func() {
			values := map[string]string{
				"replay.file":           "/tmp/a.replay",
				"replay.mode":           "record",
				"replay.exact_matching": "true",
				"replay.on_exhausted":   "first",
				"intercepts.commands":   "git,make",
				"intercepts.python":     "requests",
				"api.listen":            ":1234",
				"log.json":              "true",
				"log.pretty":            "false",
				"log.file":              "/tmp/playback.log",
			}
			for key, value := range values {
				Expect(c.SetConfigValue(key, value)).To(Succeed(), key)
			}
			for key, value := range values {
				got, err := c.GetConfigValue(key)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(value), key)
			}
		})

		It("splits comma-separated intercept lists", func() {
			Expect(c.SetConfigValue("intercepts.commands", " git , ,make ")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Intercepts(intercept.KindCommandLine)).To(Equal([]string{"git", "make"}))
		})

		It("rejects unknown keys", func() {
			Expect(c.SetConfigValue("proxy.listen", ":1")).To(MatchError(ContainSubstring("unknown config key")))
			_, err := c.GetConfigValue("proxy.listen")
			Expect(err).To(HaveOccurred())
		})

		It("rejects invalid values", func() {
			Expect(c.SetConfigValue("replay.mode", "rewind")).NotTo(Succeed())
			Expect(c.SetConfigValue("replay.on_exhausted", "never")).NotTo(Succeed())
			Expect(c.SetConfigValue("replay.exact_matching", "maybe")).NotTo(Succeed())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("lists keys in section order", func() {
			keys := config.ValidConfigKeys()
			Expect(keys[0]).To(Equal("replay.file"))
			Expect(keys).To(HaveLen(10))
			for _, k := range keys {
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
			Expect(config.IsValidConfigKey("storage.sqlite_path")).To(BeFalse())
		})
	})
})

var _ = Describe("Config as an intercept source", func() {
	It("returns the lists per intercept kind", func() {
		cfg := config.NewDefaultConfig()
		cfg.Intercepted.Commands = []string{"git"}
		cfg.Intercepted.Python = []string{"numpy"}

		Expect(cfg.Intercepts(intercept.KindCommandLine)).To(Equal([]string{"git"}))
		Expect(cfg.Intercepts(intercept.KindPython)).To(Equal([]string{"numpy"}))
		Expect(cfg.Intercepts("ruby")).To(BeNil())
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("rejects unsupported versions", func() {
		_, err := config.ParseConfigTOML([]byte("version = 7\n"))
		Expect(err).To(MatchError(ContainSubstring("unsupported config version 7")))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("replay.mode")).To(Equal(defaults.Replay.Mode))
		Expect(v.GetString("replay.on_exhausted")).To(Equal(defaults.Replay.OnExhausted))
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetBool("replay.exact_matching")).To(BeFalse())
	})

	It("env vars take precedence over config file values", func() {
		data := `[replay]
mode = "record"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		GinkgoT().Setenv("PLAYBACK_REPLAY_MODE", "replay_old_record_new")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("replay.mode")).To(Equal("replay_old_record_new"))
	})

	It("builds a Config with comma-separated env lists", func() {
		GinkgoT().Setenv("PLAYBACK_INTERCEPTS_COMMANDS", "git,svn")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg := config.FromViper(v)
		Expect(cfg.Intercepted.Commands).To(Equal([]string{"git", "svn"}))
		Expect(cfg.Replay.Mode).To(Equal("replay"))
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var exact bool
		config.AddBoolFlag(cmd, config.Flags, config.FlagExact, &exact)

		Expect(cmd.Flags().Set("exact", "true")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagExact})

		Expect(v.GetBool("replay.exact_matching")).To(BeTrue())
	})

	It("falls through to config when flag not set", func() {
		data := `[api]
listen = ":5555"
`
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.FlagSet{}, []string{"nonexistent"})

		Expect(v.GetString("api.listen")).To(Equal(config.NewDefaultConfig().API.Listen))
	})

	It("AddStringFlag pulls name, shorthand, and default from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var mode string
		config.AddStringFlag(cmd, config.Flags, config.FlagOnExhausted, &mode)

		f := cmd.Flags().Lookup("on-exhausted")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("last"))
	})

	It("AddStringSliceFlag registers the shorthand", func() {
		cmd := &cobra.Command{Use: "test"}
		var commands []string
		config.AddStringSliceFlag(cmd, config.Flags, config.FlagCommands, &commands)

		Expect(cmd.Flags().Set("commands", "git,make")).To(Succeed())
		Expect(commands).To(Equal([]string{"git", "make"}))
		Expect(cmd.Flags().Lookup("commands").Shorthand).To(Equal("c"))
	})
})
