package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	dc "noc-stats/domain/config"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "./config.yml"

// Load parses the YAML configuration file at path over the defaults.
func Load(path string) (dc.Config, error) {
	c := dc.Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return c, nil
}

// Resolve loads the file named by CONFIG_PATH (or ./config.yml). A missing
// file is not an error: defaults are returned.
func Resolve() (dc.Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	c, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("config.default", "path", path)
			return dc.Default(), nil
		}
		return c, err
	}
	return c, nil
}
