package server

import (
	"strings"
	"time"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// ReadTimeout bounds reading a full request.
	ReadTimeout time.Duration `mapstructure:"read_timeout" default:"30s"`
	// ShutdownTimeout bounds graceful shutdown, including an in-flight run.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" default:"1m"`
}

// Address returns the listen address for the configured port.
// A port already prefixed with ":" or carrying a host is returned as-is.
func (c Config) Address() string {
	if c.Port == "" {
		return ":8080"
	}
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// AuthEnabled reports whether requests must carry the API key.
func (c Config) AuthEnabled() bool {
	return c.ApiKey != ""
}
