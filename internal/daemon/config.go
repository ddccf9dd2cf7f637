// Package daemon wires configuration, storage, services, and the HTTP
// server into the long-running tillpoint process.
package daemon

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full daemon configuration, loaded from TOML with an
// optional .env overlay for secrets.
type Config struct {
	API     APIConfig     `toml:"api"`
	Store   StoreConfig   `toml:"store"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// Key is the shared-secret header credential required on write
	// routes. Empty disables the check (local development only).
	Key string `toml:"key"`
	// MetricsEnabled mounts /metrics.
	MetricsEnabled bool `toml:"metrics_enabled"`
}

// StoreConfig locates the sqlite database.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // console, json
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8475,
			MetricsEnabled: true,
		},
		Store: StoreConfig{
			Dir: defaultStoreDir(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tillpoint"
	}
	return filepath.Join(home, ".tillpoint")
}

// LoadConfig reads the TOML file at path over the defaults. A missing
// file is not an error — defaults apply. A .env next to the working
// directory and the TILLPOINT_API_KEY variable override the stored key
// so the secret can stay out of the config file.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	// Overlay from environment; .env is optional.
	_ = godotenv.Load()
	if key := os.Getenv("TILLPOINT_API_KEY"); key != "" {
		cfg.API.Key = key
	}
	if dir := os.Getenv("TILLPOINT_STORE_DIR"); dir != "" {
		cfg.Store.Dir = dir
	}
	return cfg, nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	return filepath.Join(defaultStoreDir(), "config.toml")
}
