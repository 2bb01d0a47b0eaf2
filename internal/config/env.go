package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/xdg/sshgate/internal/clog"
)

const envPrefix = "MCP"

// EnvConfigPathVar names the variable that designates the config file.
const EnvConfigPathVar = envPrefix + "_SSH_CONFIG"

// Transport names accepted in MCP_TRANSPORT.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Env holds process-level settings read from the environment.
type Env struct {
	ConfigPath     string     `envconfig:"SSH_CONFIG" default:"ssh_profiles.json"`
	Transport      string     `envconfig:"TRANSPORT" default:"stdio"`
	HTTPAddr       string     `envconfig:"HTTP_ADDR" default:"127.0.0.1:8765"`
	LogLevel       clog.Level `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins []string   `envconfig:"ALLOWED_ORIGINS"`
}

// LoadEnv reads MCP_* environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	// envconfig only applies defaults to unset variables; treat empty the same.
	if env.ConfigPath == "" {
		env.ConfigPath = DefaultConfigPath
	}
	if env.Transport == "" {
		env.Transport = TransportStdio
	}
	switch env.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return nil, fmt.Errorf("%s_TRANSPORT: unsupported transport %q (want %s or %s)", envPrefix, env.Transport, TransportStdio, TransportHTTP)
	}
	return &env, nil
}
