package config

import "github.com/caarlos0/env/v11"

// EnvPrefix prefixes every environment variable read by the server.
const EnvPrefix = "GOPHAUTH_"

// parseEnv overlays GOPHAUTH_* variables. Unset variables leave fields as they are.
func parseEnv(config *Config, environ map[string]string) error {
	return env.ParseWithOptions(config, env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
}
