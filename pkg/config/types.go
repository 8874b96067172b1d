package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/papercomputeco/playback/pkg/intercept"
)

// Config represents the persistent playback configuration stored as config.toml
// in the .playback/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int              `toml:"version"`
	Replay      ReplayConfig     `toml:"replay"`
	Intercepted InterceptsConfig `toml:"intercepts"`
	API         APIConfig        `toml:"api"`
	Log         LogConfig        `toml:"log"`
}

// ReplayConfig holds the settings a replay session is created with.
type ReplayConfig struct {
	File          string `toml:"file,omitempty"`
	Mode          string `toml:"mode,omitempty"`
	ExactMatching bool   `toml:"exact_matching,omitempty"`
	OnExhausted   string `toml:"on_exhausted,omitempty"`
}

// InterceptsConfig lists the intercepted programs and python attributes.
type InterceptsConfig struct {
	Commands []string `toml:"commands,omitempty"`
	Python   []string `toml:"python,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// LogConfig holds logger settings shared by every command.
type LogConfig struct {
	JSON   bool `toml:"json,omitempty"`
	Pretty bool `toml:"pretty,omitempty"`

	// File, when set, also receives JSON logs at debug level.
	File string `toml:"file,omitempty"`
}

var _ intercept.Source = (*Config)(nil)

// Intercepts returns the configured names for an intercept kind.
func (c *Config) Intercepts(kind string) []string {
	switch kind {
	case intercept.KindCommandLine:
		return c.Intercepted.Commands
	case intercept.KindPython:
		return c.Intercepted.Python
	default:
		return nil
	}
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"replay.file": {
		get: func(c *Config) string { return c.Replay.File },
		set: func(c *Config, v string) error { c.Replay.File = v; return nil },
	},
	"replay.mode": {
		get: func(c *Config) string { return c.Replay.Mode },
		set: func(c *Config, v string) error {
			switch v {
			case "record", "replay", "replay_old_record_new":
				c.Replay.Mode = v
				return nil
			default:
				return fmt.Errorf("invalid value for replay.mode: %q (available: record, replay, replay_old_record_new)", v)
			}
		},
	},
	"replay.exact_matching": {
		get: func(c *Config) string { return strconv.FormatBool(c.Replay.ExactMatching) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for replay.exact_matching: %w", err)
			}
			c.Replay.ExactMatching = b
			return nil
		},
	},
	"replay.on_exhausted": {
		get: func(c *Config) string { return c.Replay.OnExhausted },
		set: func(c *Config, v string) error {
			switch v {
			case "last", "first":
				c.Replay.OnExhausted = v
				return nil
			default:
				return fmt.Errorf("invalid value for replay.on_exhausted: %q (available: last, first)", v)
			}
		},
	},
	"intercepts.commands": {
		get: func(c *Config) string { return strings.Join(c.Intercepted.Commands, ",") },
		set: func(c *Config, v string) error { c.Intercepted.Commands = splitList(v); return nil },
	},
	"intercepts.python": {
		get: func(c *Config) string { return strings.Join(c.Intercepted.Python, ",") },
		set: func(c *Config, v string) error { c.Intercepted.Python = splitList(v); return nil },
	},
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"log.json": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.JSON) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.json: %w", err)
			}
			c.Log.JSON = b
			return nil
		},
	},
	"log.pretty": {
		get: func(c *Config) string { return strconv.FormatBool(c.Log.Pretty) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for log.pretty: %w", err)
			}
			c.Log.Pretty = b
			return nil
		},
	},
	"log.file": {
		get: func(c *Config) string { return c.Log.File },
		set: func(c *Config, v string) error { c.Log.File = v; return nil },
	},
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
