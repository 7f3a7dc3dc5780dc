package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	dcfg "ee-stats/domain/config"

	"gopkg.in/yaml.v3"
)

// Load parses the YAML configuration file at path and fills defaults.
func Load(path string) (*dcfg.Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c dcfg.Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	c.ApplyDefaults()
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return &c, nil
}

// LoadOptional reads CONFIG_PATH (default ./config.yml). A missing file is not
// an error: built-in defaults are returned instead.
func LoadOptional() (*dcfg.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config.yml"
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config.default", "path", path)
		return dcfg.Default(), nil
	}
	return c, err
}
