package config

import "time"

// TimeoutConfig holds timeout settings for the HTTP server.
type TimeoutConfig struct {
	// Read bounds reading a request, body included. Default: 15s
	Read time.Duration `koanf:"read"`

	// Idle bounds keep-alive connections between requests. Default: 120s
	Idle time.Duration `koanf:"idle"`

	// Request bounds a single handler via chi's Timeout middleware. Default: 60s
	Request time.Duration `koanf:"request"`

	// Shutdown bounds graceful shutdown. Default: 30s
	Shutdown time.Duration `koanf:"shutdown"`
}

// DefaultTimeoutConfig returns the default timeout configuration
func DefaultTimeoutConfig() TimeoutConfig {
	return TimeoutConfig{
		Read:     15 * time.Second,
		Idle:     120 * time.Second,
		Request:  60 * time.Second,
		Shutdown: 30 * time.Second,
	}
}
