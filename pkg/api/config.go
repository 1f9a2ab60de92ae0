package api

import "time"

// ServerConfig configures the HTTP server that terminates both the scale
// endpoints and the management API.
//
// The scale speaks plain HTTP on port 80 and does not negotiate TLS; the
// operator points the vendor hostnames here via DNS.
type ServerConfig struct {
	// Port is the HTTP listen port. Default: 80.
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire
	// request, including the body. Default: 10s.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response. Default: 10s.
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit. Default: 60s.
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// ShutdownTimeout bounds the graceful drain on shutdown. In-flight
	// ingest transactions get this long to finish. Default: 10s.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *ServerConfig) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 80
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}
