// Package postgres provides the connection pool for the statistics fact store.
package postgres

import (
	"errors"
	"time"
)

// Static errors for configuration validation
var (
	ErrURLRequired = errors.New("postgres URL is required")
)

// Config contains fact store connection settings
type Config struct {
	URL            string        `yaml:"url" validate:"required"`
	MaxConns       int32         `yaml:"maxConns"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrURLRequired
	}

	return nil
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}

	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
}
