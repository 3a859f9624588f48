package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRootCommandRequiresInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--target", "Acidity"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "input") {
		t.Errorf("Execute() error = %v, want missing-input failure", err)
	}
}

func TestRootCommandReportsUnreadableInput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	missing := filepath.Join(t.TempDir(), "absent.csv")
	cmd.SetArgs([]string{"--input", missing, "--target", "Acidity", "--log-level", "error"})
	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "opening") {
		t.Errorf("Execute() error = %v, want open failure for %s", err, missing)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Ratio != 0.75 || cfg.Folds != 15 || cfg.Repeats != 3 || cfg.Grid != 10 {
		t.Errorf("resampling defaults = %+v", cfg)
	}
	if cfg.CorrelationThreshold != 0.75 || cfg.Seed != 42 || cfg.ForestTrees != 750 {
		t.Errorf("modelling defaults = %+v", cfg)
	}
	if cfg.Metric != "rmse" || cfg.LogLevel != "info" || cfg.OutDir != "out" {
		t.Errorf("reporting defaults = %+v", cfg)
	}
	if err := cfg.validate(); err == nil {
		t.Error("validate() should reject a config without input and target")
	}
}

func TestLoadConfigFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := []byte(`input: survey.csv
target: Acidity
categorical: [Texture]
folds: 5
repeats: 2
seed: 7
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Input != "survey.csv" || cfg.Target != "Acidity" {
		t.Errorf("paths = %q, %q", cfg.Input, cfg.Target)
	}
	if len(cfg.Categorical) != 1 || cfg.Categorical[0] != "Texture" {
		t.Errorf("categorical = %v", cfg.Categorical)
	}
	if cfg.Folds != 5 || cfg.Repeats != 2 || cfg.Seed != 7 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Ratio != 0.75 {
		t.Errorf("unset ratio = %v, want default 0.75", cfg.Ratio)
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("validate() error: %v", err)
	}
}
