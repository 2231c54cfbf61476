package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is one external command.
type Step struct {
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
}

// Config describes an experiment made of external commands. Run is executed
// once per circuit; Setup and Teardown, when set, bracket the batch.
type Config struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Dir         string `yaml:"dir" json:"dir"`
	Setup       *Step  `yaml:"setup" json:"setup"`
	Run         Step   `yaml:"run" json:"run"`
	Teardown    *Step  `yaml:"teardown" json:"teardown"`
}

// LoadConfig reads an experiment file (YAML or JSON by extension). A relative
// Dir is resolved against the file's directory, which is also the default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment config: %w", err)
	}

	var cfg Config
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	if cfg.Run.Command == "" {
		return nil, fmt.Errorf("%s: run.command is required", filepath.Base(path))
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(path), ext)
	}
	base := filepath.Dir(path)
	switch {
	case cfg.Dir == "":
		cfg.Dir = base
	case !filepath.IsAbs(cfg.Dir):
		cfg.Dir = filepath.Join(base, cfg.Dir)
	}
	return &cfg, nil
}
