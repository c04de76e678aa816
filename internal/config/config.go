// Package config loads the default index kind and log level from an
// optional YAML file: missing file means defaults, a
// present-but-malformed file is fatal at startup rather than a
// recoverable error, since there's no sensible partial config to run
// with.
package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

// StorageConfig are the engine-wide defaults a deployment may override.
type StorageConfig struct {
	DefaultIndexKind string `yaml:"default_index_kind"` // "btree" or "hash"
	LogLevel         string `yaml:"log_level"`
}

// Load returns defaults when path is empty, and fatally exits the
// process if path is set but cannot be read or parsed.
func Load(path string) StorageConfig {
	cfg := StorageConfig{DefaultIndexKind: "btree"}
	if path == "" {
		return cfg
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		log.Fatal(err)
	}
	return cfg
}
