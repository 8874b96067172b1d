package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --exact
// on both "playback resolve" and "playback serve").
type Flag struct {
	// Name is the long flag name (e.g. "exact").
	Name string

	// Shorthand is the one-letter short flag (e.g. "x"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "replay.exact_matching").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddBoolFlag,
// and BindRegisteredFlags to avoid typos or drift from one command to another.
const (
	FlagTraceFile   = "trace"
	FlagMode        = "mode"
	FlagExact       = "exact"
	FlagOnExhausted = "on-exhausted"
	FlagCommands    = "commands"
	FlagPython      = "python"
	FlagAPIListen   = "listen"
	FlagLogJSON     = "json-logs"
	FlagLogPretty   = "pretty-logs"
	FlagLogFile     = "log-file"
)

// Flags is the registry shared by every playback command.
var Flags = FlagSet{
	FlagTraceFile: {
		Name:        "trace",
		Shorthand:   "t",
		ViperKey:    "replay.file",
		Description: "Recorded trace file to replay",
	},
	FlagMode: {
		Name:        "mode",
		ViperKey:    "replay.mode",
		Description: "Capture mode (record, replay, replay_old_record_new)",
	},
	FlagExact: {
		Name:        "exact",
		Shorthand:   "x",
		ViperKey:    "replay.exact_matching",
		Description: "Fail on requests without a literal match instead of picking the closest one",
	},
	FlagOnExhausted: {
		Name:        "on-exhausted",
		ViperKey:    "replay.on_exhausted",
		Description: "Generation replayed once a request is used up (last, first)",
	},
	FlagCommands: {
		Name:        "commands",
		Shorthand:   "c",
		ViperKey:    "intercepts.commands",
		Description: "Intercepted command-line programs",
	},
	FlagPython: {
		Name:        "python",
		Shorthand:   "p",
		ViperKey:    "intercepts.python",
		Description: "Intercepted python attributes",
	},
	FlagAPIListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	FlagLogJSON: {
		Name:        "json-logs",
		ViperKey:    "log.json",
		Description: "Emit structured JSON logs",
	},
	FlagLogPretty: {
		Name:        "pretty-logs",
		ViperKey:    "log.pretty",
		Description: "Force colorized log output",
	},
	FlagLogFile: {
		Name:        "log-file",
		ViperKey:    "log.file",
		Description: "Also append JSON debug logs to this file",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddStringSliceFlag registers a string slice flag on cmd from the given FlagSet.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *[]string) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	if def.Shorthand != "" {
		cmd.Flags().StringSliceVarP(target, def.Name, def.Shorthand, nil, def.Description)
	} else {
		cmd.Flags().StringSliceVar(target, def.Name, nil, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}

// defaultBool returns the default bool value for a viper key from NewDefaultConfig.
func defaultBool(viperKey string) bool {
	v := viper.New()
	setViperDefaults(v)
	return v.GetBool(viperKey)
}
