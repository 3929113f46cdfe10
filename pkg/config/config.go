// Package config loads the YAML configuration document that drives a
// Store's retention policy, GC cadence, and persisted backend selection:
// a flat struct tree with yaml tags, read with gopkg.in/yaml.v2.
package config

import (
	"fmt"
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// BackendConfig selects and configures the persisted RecordSource backend
// an Environment warms its base source from at startup.
type BackendConfig struct {
	Kind       string `yaml:"kind"` // "mock", "redis", or "cassandra"
	Addr       string `yaml:"addr"`
	Keyspace   string `yaml:"keyspace"`
	Datacenter string `yaml:"datacenter"`
}

// RetentionConfig governs Store GC.
type RetentionConfig struct {
	GCIntervalSeconds int  `yaml:"gc_interval_seconds"`
	FastNotify        bool `yaml:"fast_notify"`
}

// StatisticsConfig governs Prometheus metrics emission.
type StatisticsConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
}

// Config is the top-level document an Environment is constructed from.
type Config struct {
	Name       string           `yaml:"name"`
	Backend    BackendConfig    `yaml:"backend"`
	Retention  RetentionConfig  `yaml:"retention"`
	Statistics StatisticsConfig `yaml:"statistics"`
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}
