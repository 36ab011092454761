package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk service configuration.
type Config struct {
	HTTPBind          string   `yaml:"httpBind"`
	HTTPTokens        []string `yaml:"httpTokens,omitempty"`
	ArchivePath       string   `yaml:"archivePath"`
	SessionTTLMinutes int      `yaml:"sessionTtlMinutes"`
	MaxUploadMB       int      `yaml:"maxUploadMb"`
}

var ConfigPath string

func init() {
	// A config.yaml next to the binary wins; otherwise fall back to the
	// user's home directory.
	pwd, _ := os.Getwd()
	local := filepath.Join(pwd, "config.yaml")
	if _, err := os.Stat(local); err == nil {
		ConfigPath = local
	} else {
		homeDir, _ := os.UserHomeDir()
		ConfigPath = filepath.Join(homeDir, ".licznik", "config.yaml")
	}
}

// Default returns the configuration used when no file exists yet.
func Default() *Config {
	return &Config{
		HTTPBind:          "127.0.0.1:8787",
		ArchivePath:       "archiwum.db",
		SessionTTLMinutes: 240,
		MaxUploadMB:       32,
	}
}

// Load reads the configuration file, filling unset fields with defaults.
// A missing file is not an error: defaults apply.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("nieprawidłowy plik konfiguracji %s: %w", ConfigPath, err)
	}

	if cfg.HTTPBind == "" {
		cfg.HTTPBind = Default().HTTPBind
	}
	if cfg.ArchivePath == "" {
		cfg.ArchivePath = Default().ArchivePath
	}
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = Default().MaxUploadMB
	}
	if cfg.SessionTTLMinutes < 0 {
		cfg.SessionTTLMinutes = 0
	}
	return cfg, nil
}

// Save writes the configuration, creating the directory when needed.
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(ConfigPath)
	os.MkdirAll(dir, 0755)
	return os.WriteFile(ConfigPath, data, 0644)
}

// SessionTTL converts the configured minutes to a duration; zero disables
// session eviction.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// MaxUploadBytes is the multipart memory/read cap for uploads.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
