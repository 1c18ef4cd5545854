package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/postloop/creative-bandit/internal/learn"
	"github.com/postloop/creative-bandit/internal/policy"
	"github.com/postloop/creative-bandit/internal/reward"
)

const (
	configPathEnv = "CREATIVE_BANDIT_CONFIG"
	databaseEnv   = "CREATIVE_BANDIT_DB"
)

// Config holds every tunable knob of the learning engine.
type Config struct {
	Database  DatabaseConfig     `yaml:"database"`
	Selection policy.Config      `yaml:"selection"`
	Learning  learn.Config       `yaml:"learning"`
	Baseline  BaselineConfig     `yaml:"baseline"`
	Reward    reward.Config      `yaml:"reward"`
	Health    learn.HealthConfig `yaml:"health"`
}

// DatabaseConfig describes the SQLite file backing the learned policy.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// BaselineConfig holds the EMA smoothing factor.
type BaselineConfig struct {
	Beta float64 `yaml:"beta"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top of defaults.
func Load() Config {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			cfg = Default()
		}
	}

	cfg.applyEnvOverrides()
	cfg.fillZero()
	return cfg
}

// Default returns the calibrated engine configuration.
func Default() Config {
	return Config{
		Database:  DatabaseConfig{Path: "creative_bandit.db"},
		Selection: policy.DefaultConfig(),
		Learning:  learn.DefaultConfig(),
		Baseline:  BaselineConfig{Beta: 0.1},
		Reward:    reward.DefaultConfig(),
		Health:    learn.DefaultHealthConfig(),
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseEnv); v != "" {
		c.Database.Path = v
	}
}

// fillZero restores defaults for fields a partial YAML file left zeroed.
func (c *Config) fillZero() {
	def := Default()
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Selection.Temperature <= 0 {
		c.Selection.Temperature = def.Selection.Temperature
	}
	if c.Learning.LRDiscrete == 0 {
		c.Learning.LRDiscrete = def.Learning.LRDiscrete
	}
	if c.Learning.LRTheta == 0 {
		c.Learning.LRTheta = def.Learning.LRTheta
	}
	if c.Baseline.Beta <= 0 {
		c.Baseline.Beta = def.Baseline.Beta
	}
	if c.Reward.PenaltyImmediate == 0 {
		c.Reward.PenaltyImmediate = def.Reward.PenaltyImmediate
	}
	if c.Reward.PenaltyScale == 0 {
		c.Reward.PenaltyScale = def.Reward.PenaltyScale
	}
	if c.Reward.PenaltyTauDays == 0 {
		c.Reward.PenaltyTauDays = def.Reward.PenaltyTauDays
	}
}
