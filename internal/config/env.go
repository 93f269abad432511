package config

// Environment variables read by ApplyEnv and the command line tool.
const (
	EnvAPIKey = "ANTHROPIC_API_KEY"
	EnvModel  = "TOOLAGENT_MODEL"
	EnvConfig = "TOOLAGENT_CONFIG"
)

// ApplyEnv overlays environment values on o. getenv is usually os.Getenv.
func ApplyEnv(o *Options, getenv func(string) string) {
	if key := getenv(EnvAPIKey); key != "" {
		o.APIKey = key
	}

	if model := getenv(EnvModel); model != "" {
		o.Model = model
	}
}
