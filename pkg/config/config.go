// Package config loads the optional YAML configuration file. Every field
// has a sensible default so running without a file works.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mklimuk/worklog-pilot/pkg/worklog"
)

// AIConfig selects the language model provider. API keys come from the
// environment, never from the file.
type AIConfig struct {
	Provider string `yaml:"provider"` // openai, moonshot, anthropic, gemini or compat
	Endpoint string `yaml:"endpoint"` // for compat: any OpenAI-style base URL
	Model    string `yaml:"model"`
}

// GitConfig controls vault git synchronization.
type GitConfig struct {
	Enabled    bool   `yaml:"enabled"`
	SSHKeyPath string `yaml:"sshKeyPath"`
}

// Config is the full file layout.
type Config struct {
	RootFolder       string                        `yaml:"rootFolder"`
	IndexPath        string                        `yaml:"indexPath"`
	HoursPerDay      float64                       `yaml:"hoursPerDay"`
	DefaultStartTime string                        `yaml:"defaultStartTime"`
	DailyTemplate    string                        `yaml:"dailyTemplate"`
	EndOfDayMarkers  []string                      `yaml:"endOfDayMarkers"`
	Categories       []worklog.CategoryDefinition  `yaml:"categories"`
	AI               AIConfig                      `yaml:"ai"`
	Git              GitConfig                     `yaml:"git"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		RootFolder:       "Worklogs",
		IndexPath:        ".worklog-pilot/data-index.json",
		HoursPerDay:      8,
		DefaultStartTime: "08:30",
	}
}

// Load reads the config file at path, overlaying the defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.RootFolder == "" {
		cfg.RootFolder = "Worklogs"
	}
	if cfg.IndexPath == "" {
		cfg.IndexPath = ".worklog-pilot/data-index.json"
	}
	if cfg.HoursPerDay <= 0 {
		cfg.HoursPerDay = 8
	}
	if cfg.DefaultStartTime == "" {
		cfg.DefaultStartTime = "08:30"
	}
	return cfg, nil
}

// Markers builds the end-of-day marker set, falling back to the built-in
// titles when the file defines none.
func (c *Config) Markers() *worklog.EndOfDayMarkers {
	if len(c.EndOfDayMarkers) == 0 {
		return worklog.DefaultEndOfDayMarkers()
	}
	return worklog.NewEndOfDayMarkers(c.EndOfDayMarkers)
}

// Classifier builds the category classifier, falling back to the built-in
// rules when the file defines none.
func (c *Config) Classifier() *worklog.Classifier {
	defs := c.Categories
	if len(defs) == 0 {
		defs = worklog.DefaultCategories()
	}
	return worklog.NewClassifier(defs)
}
