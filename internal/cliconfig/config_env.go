package cliconfig

import (
	"net"
	"os"
	"strings"

	"github.com/tkroman/nailgun/internal/domain"
)

// ApplyEnvConfig applies configuration from environment variables (NG_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
//
// The reference client's NAILGUN_SERVER and NAILGUN_PORT variables are
// honored too, at lower precedence than NG_ADDRESS.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("address", legacyServerAddress(), &cfg.Address)
	s.setString("address", os.Getenv("NG_ADDRESS"), &cfg.Address)
	s.setString("dir", os.Getenv("NG_DIR"), &cfg.Dir)

	if err := s.setDuration("wait", os.Getenv("NG_WAIT"), &cfg.Wait); err != nil {
		return err
	}
	if err := s.setDuration("heartbeat", os.Getenv("NG_HEARTBEAT"), &cfg.Heartbeat); err != nil {
		return err
	}

	s.setBoolFromString("no-input", os.Getenv("NG_NO_INPUT"), &cfg.NoInput)
	s.setBoolFromString("lenient", os.Getenv("NG_LENIENT"), &cfg.Lenient)
	s.setBoolFromString("verbose", os.Getenv("NG_VERBOSE"), &cfg.Verbose)

	return nil
}

// legacyServerAddress composes an address from NAILGUN_SERVER and
// NAILGUN_PORT. Either may be set alone; a local: server name carries no
// port at all.
func legacyServerAddress() string {
	host := os.Getenv("NAILGUN_SERVER")
	port := os.Getenv("NAILGUN_PORT")
	if host == "" && port == "" {
		return ""
	}
	if strings.HasPrefix(host, domain.LocalPrefix) {
		return host
	}
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		return host
	}
	return net.JoinHostPort(host, port)
}
