package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/VincevanderBerg/predictive-soil-analytics/pkg/errors"
)

// RunConfig is the YAML run configuration. Zero values fall back to the
// reference defaults via applyDefaults, so a minimal file only needs the
// input path and target name.
type RunConfig struct {
	Input       string   `yaml:"input"`
	Target      string   `yaml:"target"`
	Categorical []string `yaml:"categorical"`
	OutDir      string   `yaml:"output_dir"`

	Ratio                float64 `yaml:"ratio"`
	Folds                int     `yaml:"folds"`
	Repeats              int     `yaml:"repeats"`
	Grid                 int     `yaml:"grid"`
	CorrelationThreshold float64 `yaml:"correlation_threshold"`
	Metric               string  `yaml:"metric"`
	Seed                 uint64  `yaml:"seed"`
	ForestTrees          int     `yaml:"forest_trees"`

	LogLevel string `yaml:"log_level"`
}

func loadConfig(path string) (*RunConfig, error) {
	cfg := &RunConfig{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config %s", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config %s", path)
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *RunConfig) applyDefaults() {
	if c.OutDir == "" {
		c.OutDir = "out"
	}
	if c.Ratio == 0 {
		c.Ratio = 0.75
	}
	if c.Folds == 0 {
		c.Folds = 15
	}
	if c.Repeats == 0 {
		c.Repeats = 3
	}
	if c.Grid == 0 {
		c.Grid = 10
	}
	if c.CorrelationThreshold == 0 {
		c.CorrelationThreshold = 0.75
	}
	if c.Metric == "" {
		c.Metric = "rmse"
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.ForestTrees == 0 {
		c.ForestTrees = 750
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *RunConfig) validate() error {
	if c.Input == "" {
		return errors.New("input path is required")
	}
	if c.Target == "" {
		return errors.New("target attribute is required")
	}
	return nil
}
