package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Engine struct {
		LearningRate              float64 `yaml:"learning_rate" validate:"gt=0,lte=1"`
		DefaultInteractionQuality float64 `yaml:"default_interaction_quality" validate:"gte=0,lte=1"`
	} `yaml:"engine"`
	Drift struct {
		IntervalMinutes float64 `yaml:"interval_minutes" validate:"gt=0"`
		Jitter          float64 `yaml:"jitter" validate:"gte=0,lte=1"`
		Seed            int64   `yaml:"seed"`
	} `yaml:"drift"`
	Memory struct {
		ImportanceThreshold float64 `yaml:"importance_threshold" validate:"gte=0,lte=1"`
		SaveQueueSize       int     `yaml:"save_queue_size" validate:"gt=0"`
		DataDir             string  `yaml:"data_dir"`
	} `yaml:"memory"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Port    int    `yaml:"port" validate:"gte=0,lte=65535"`
		Path    string `yaml:"path" validate:"startswith=/"`
	} `yaml:"metrics"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	config := &Config{}
	config.Engine.LearningRate = 0.05
	config.Engine.DefaultInteractionQuality = 0.5
	config.Drift.IntervalMinutes = 60
	config.Drift.Jitter = 0.1
	config.Memory.ImportanceThreshold = 0.5
	config.Memory.SaveQueueSize = 64
	config.Memory.DataDir = "data"
	config.Metrics.Enabled = false
	config.Metrics.Port = 9091
	config.Metrics.Path = "/metrics"
	return config
}

// LoadConfig reads path over the defaults. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return config, nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return config, nil
}
