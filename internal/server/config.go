package server

import "fmt"

// Config holds HTTP server configuration.
//
// The serving model mirrors the evidenced deployment: one worker process,
// a fixed number of concurrent request slots, and no request timeout
// unless an operator sets one. Zero-valued timeouts mean unbounded.
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`

	// WorkerThreads caps the number of requests in flight. Additional
	// requests queue until a slot frees up.
	WorkerThreads int `yaml:"worker_threads" mapstructure:"worker_threads" validate:"gte=0"`

	// ReadTimeout, WriteTimeout, and IdleTimeout are in seconds.
	// Zero disables the timeout — long-running requests are expected
	// and must be tolerated.
	ReadTimeout  int `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout int `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout  int `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`

	// GracefulTimeout bounds the shutdown drain, in seconds. Zero means
	// drain without a deadline; shutdown waits for in-flight requests
	// however long they take. Operators can set a hard deadline here.
	GracefulTimeout int `yaml:"graceful_timeout" mapstructure:"graceful_timeout" validate:"gte=0"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.WorkerThreads == 0 {
		c.WorkerThreads = 8
	}
	// Timeouts intentionally default to zero (unbounded).
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535 (got: %d)", c.Port)
	}
	if c.WorkerThreads < 0 {
		return fmt.Errorf("server.worker_threads must be non-negative (got: %d)", c.WorkerThreads)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("server.read_timeout must be non-negative (got: %d)", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("server.write_timeout must be non-negative (got: %d)", c.WriteTimeout)
	}
	if c.GracefulTimeout < 0 {
		return fmt.Errorf("server.graceful_timeout must be non-negative (got: %d)", c.GracefulTimeout)
	}
	return nil
}
