package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Address   string   `toml:"address"`
	Wait      string   `toml:"wait"`
	Heartbeat string   `toml:"heartbeat"`
	Dir       string   `toml:"dir"`
	Env       []string `toml:"env"`
	NoInput   *bool    `toml:"no_input"`
	Lenient   *bool    `toml:"lenient"`
	Verbose   *bool    `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.ng/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".ng", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("address", fc.Address, &cfg.Address)
	s.setString("dir", fc.Dir, &cfg.Dir)
	s.setStrings("env", fc.Env, &cfg.Env)

	if err := s.setDuration("wait", fc.Wait, &cfg.Wait); err != nil {
		return err
	}
	if err := s.setDuration("heartbeat", fc.Heartbeat, &cfg.Heartbeat); err != nil {
		return err
	}

	s.setBool("no-input", fc.NoInput, &cfg.NoInput)
	s.setBool("lenient", fc.Lenient, &cfg.Lenient)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
