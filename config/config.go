package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Capture modes.
const (
	CaptureOff    = "off"
	CaptureRecord = "record"
	CaptureReplay = "replay"
)

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Hostname string `toml:"hostname"`
	Port     int    `toml:"port"`
	Debug    bool   `toml:"debug"`
}

// UpstreamConfig holds VK API client settings
type UpstreamConfig struct {
	Timeout int `toml:"timeout"` // seconds
}

// CaptureConfig holds capture/replay settings for offline runs
type CaptureConfig struct {
	Mode     string `toml:"mode"`
	Database string `toml:"database"`
}

// Config is the top-level configuration, threaded explicitly into the
// server and clients at startup.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Capture  CaptureConfig  `toml:"capture"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Hostname: "localhost",
			Port:     8080,
		},
		Upstream: UpstreamConfig{
			Timeout: 30,
		},
		Capture: CaptureConfig{
			Mode:     CaptureOff,
			Database: "captures.db",
		},
	}
}

// LoadConfig reads the TOML configuration file, falling back to defaults
// when no path is given.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	switch c.Capture.Mode {
	case CaptureOff, CaptureRecord, CaptureReplay:
	default:
		return fmt.Errorf("invalid capture mode %q", c.Capture.Mode)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}

	if c.Upstream.Timeout < 1 {
		return fmt.Errorf("invalid upstream timeout %d", c.Upstream.Timeout)
	}

	return nil
}

// Save writes the configuration back to a TOML file.
func (c *Config) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(c)
}
