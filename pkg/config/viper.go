package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/playback/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PLAYBACK_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PLAYBACK_REPLAY_FILE, PLAYBACK_API_LISTEN, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("PLAYBACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper builds a Config from the merged viper view. List values accept
// either TOML arrays or comma-separated strings from the environment.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Replay: ReplayConfig{
			File:          v.GetString("replay.file"),
			Mode:          v.GetString("replay.mode"),
			ExactMatching: v.GetBool("replay.exact_matching"),
			OnExhausted:   v.GetString("replay.on_exhausted"),
		},
		Intercepted: InterceptsConfig{
			Commands: viperList(v, "intercepts.commands"),
			Python:   viperList(v, "intercepts.python"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Log: LogConfig{
			JSON:   v.GetBool("log.json"),
			Pretty: v.GetBool("log.pretty"),
			File:   v.GetString("log.file"),
		},
	}
}

func viperList(v *viper.Viper, key string) []string {
	list := v.GetStringSlice(key)
	if len(list) == 1 {
		return splitList(list[0])
	}
	return list
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Replay
	v.SetDefault("replay.file", d.Replay.File)
	v.SetDefault("replay.mode", d.Replay.Mode)
	v.SetDefault("replay.exact_matching", d.Replay.ExactMatching)
	v.SetDefault("replay.on_exhausted", d.Replay.OnExhausted)

	// Intercepts
	v.SetDefault("intercepts.commands", d.Intercepted.Commands)
	v.SetDefault("intercepts.python", d.Intercepted.Python)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Log
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.pretty", d.Log.Pretty)
	v.SetDefault("log.file", d.Log.File)
}
