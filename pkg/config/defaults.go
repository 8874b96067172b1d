package config

const (
	defaultMode        = "replay"
	defaultOnExhausted = "last"
	defaultAPIListen   = ":8090"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Replay: ReplayConfig{
			Mode:        defaultMode,
			OnExhausted: defaultOnExhausted,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
