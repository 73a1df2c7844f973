package cliconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tkroman/nailgun/internal/domain"
)

// DefaultAddress is the address dialed when none is configured, matching
// the reference client's localhost TCP default.
const DefaultAddress = "127.0.0.1:2113"

// Config holds CLI configuration for ng.
type Config struct {
	Address string

	// Wait bounds how long to wait for the server's transport to become
	// ready before dialing. Zero means dial immediately and fail if the
	// server is not up.
	Wait time.Duration

	Heartbeat time.Duration

	Dir string
	Env []string

	NoInput bool
	Lenient bool
	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Address:   DefaultAddress,
		Heartbeat: domain.DefaultHeartbeatInterval,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Address == "" {
		c.Address = DefaultAddress
	}
	if _, err := domain.ParseAddress(c.Address); err != nil {
		return err
	}

	if c.Heartbeat <= 0 {
		return fmt.Errorf("%w: heartbeat interval must be positive", domain.ErrInvalidConfig)
	}
	if c.Wait < 0 {
		return fmt.Errorf("%w: wait must not be negative", domain.ErrInvalidConfig)
	}

	for _, pair := range c.Env {
		if !strings.Contains(pair, "=") {
			return fmt.Errorf("%w: env entry %q is not NAME=VALUE", domain.ErrInvalidConfig, pair)
		}
	}

	if c.Dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("%w: resolve working directory: %v", domain.ErrInvalidConfig, err)
		}
		c.Dir = wd
	}

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setStrings sets a string slice value if not empty and flag not changed.
func (s *configSetter) setStrings(flag string, values []string, dst *[]string) {
	if len(values) == 0 || s.changed[flag] {
		return
	}
	*dst = values
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
