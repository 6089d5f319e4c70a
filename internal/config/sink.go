package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SinkConfig tunes the best-effort error-log sink (internal/diag). It is
// optional and loaded separately from server_options.properties because
// its shape is nested rather than flat.
type SinkConfig struct {
	Path          string        `yaml:"path"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	QueueCapacity int           `yaml:"queue_capacity"`
}

// DefaultSink returns the error-log sink's built-in tuning.
func DefaultSink() *SinkConfig {
	return &SinkConfig{
		Path:          "logs/error.log",
		FlushInterval: time.Second,
		QueueCapacity: 1024,
	}
}

// LoadSink reads path as YAML, overlaying recognized fields onto
// DefaultSink(). A missing file is not an error: DefaultSink() is returned
// unchanged, since sink tuning is optional.
func LoadSink(path string) (*SinkConfig, error) {
	cfg := DefaultSink()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading sink config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing sink config %s: %w", path, err)
	}
	return cfg, nil
}
