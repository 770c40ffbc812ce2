// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// APIKeyEnv names the environment variable holding the Warcraft Logs key.
const APIKeyEnv = "WCL_API_KEY"

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	API      APIConfig      `toml:"api"`
	Analysis AnalysisConfig `toml:"analysis"`
	Output   OutputConfig   `toml:"output"`
}

// APIConfig maps Warcraft Logs connection settings.
type APIConfig struct {
	Key     *string   `toml:"key"`
	BaseURL *string   `toml:"base-url"`
	Timeout *Duration `toml:"timeout"`
}

// AnalysisConfig maps attempt selection settings.
type AnalysisConfig struct {
	OnlyKill        *bool `toml:"only-kill"`
	WipeGracePeriod *int  `toml:"wipe-grace-period"`
}

// OutputConfig maps output settings.
type OutputConfig struct {
	File *string `toml:"file"`
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// LoadEnv loads .env from the working directory if present and returns the
// API key from the environment. An empty result means no key was set.
func LoadEnv(path string) (string, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return os.Getenv(APIKeyEnv), nil
}
