// Package config loads CLI configuration with viper.
//
// Only the command layer reads configuration; the core packages receive a
// database path, a port, or a logger and never touch environment or global
// state themselves.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds everything the todo commands need.
type Config struct {
	// DBPath is the shared SQLite database file.
	DBPath string `mapstructure:"db_path"`

	// BoardPort is where `todo board` listens.
	BoardPort int `mapstructure:"board_port"`

	// LogFile, when set, routes board/watch logs through a rotating
	// file instead of stderr.
	LogFile string `mapstructure:"log_file"`

	// ExportDir is the default directory for markdown export/import.
	ExportDir string `mapstructure:"export_dir"`
}

// Load reads configuration from ~/.todo/config.yaml (if present),
// overridden by TODO_* environment variables, on top of defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	base := filepath.Join(home, ".todo")

	v.SetDefault("db_path", filepath.Join(base, "todo.db"))
	v.SetDefault("board_port", 8787)
	v.SetDefault("log_file", "")
	v.SetDefault("export_dir", filepath.Join(base, "export"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(base)

	v.SetEnvPrefix("TODO")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
