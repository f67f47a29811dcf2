package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the content of the YAML configuration file.
type Config struct {
	Log struct {
		Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
		Format string `yaml:"format" validate:"omitempty,oneof=auto text json"`
	} `yaml:"log"`
	// Engine is the backend used for pure CNF problems.
	Engine string `yaml:"engine" validate:"omitempty,oneof=auto gophersat"`
	// CountLimit caps the number of models enumerated by count queries; 0 means no limit.
	CountLimit int `yaml:"count_limit" validate:"gte=0"`
	// Options are default values for opt lines missing from instances.
	Options     map[string]string `yaml:"options" validate:"dive,keys,required,endkeys,required"`
	MetricsFile string            `yaml:"metrics_file"`
}

var validate = validator.New()

// loadConfig reads the configuration in path. An empty path yields the zero configuration.
func loadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read configuration: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse configuration %q: %w", path, err)
	}
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return cfg, fmt.Errorf("invalid configuration %q: field %s fails %q", path, verrs[0].Namespace(), verrs[0].Tag())
		}
		return cfg, fmt.Errorf("invalid configuration %q: %w", path, err)
	}
	return cfg, nil
}
