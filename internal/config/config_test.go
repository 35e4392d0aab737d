package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("defaults should load: %v", err)
	}
	if cfg.Features.Interval != 5*time.Minute {
		t.Fatalf("default interval should be 5m, got %s", cfg.Features.Interval)
	}
	if cfg.Features.SampleDelta != 10*time.Millisecond {
		t.Fatalf("default sample delta should be 10ms, got %s", cfg.Features.SampleDelta)
	}
	if cfg.Features.Zone5Threshold != 5.41 || cfg.Features.Zone6Threshold != 6.94 {
		t.Fatalf("unexpected thresholds: %+v", cfg.Features)
	}
	if cfg.Lineup.Size != 10 || cfg.Lineup.Streak != 3 || cfg.Lineup.LatePolicy != "strict" {
		t.Fatalf("unexpected lineup defaults: %+v", cfg.Lineup)
	}
	if cfg.Features.MissingLineupPolicy != "skip" {
		t.Fatalf("matches without a published lineup should be skipped by default, got %q", cfg.Features.MissingLineupPolicy)
	}
	if cfg.Simulation.Seed != 42 {
		t.Fatalf("default seed should be 42, got %d", cfg.Simulation.Seed)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
features:
  interval_minutes: 10
  workers: 4
lineup:
  late_policy: truncate
events:
  team: Maccabi Haifa
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("MATCHFEATURES_FEATURES_PRECISION", "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Features.Interval != 10*time.Minute {
		t.Fatalf("interval_minutes should override interval, got %s", cfg.Features.Interval)
	}
	if cfg.Features.Workers != 4 {
		t.Fatalf("workers should be 4, got %d", cfg.Features.Workers)
	}
	if cfg.Features.Precision != 2 {
		t.Fatalf("env should override precision, got %d", cfg.Features.Precision)
	}
	if cfg.Lineup.LatePolicy != "truncate" {
		t.Fatalf("late policy should be truncate, got %s", cfg.Lineup.LatePolicy)
	}
	if cfg.Events.Team != "Maccabi Haifa" {
		t.Fatalf("team filter not loaded: %q", cfg.Events.Team)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Features: FeaturesConfig{
				Interval:              5 * time.Minute,
				SampleDelta:           10 * time.Millisecond,
				Zone5Threshold:        5.41,
				Zone6Threshold:        6.94,
				Precision:             4,
				AccelLookahead:        5,
				UnknownPositionPolicy: "attacker",
				MissingLineupPolicy:   "skip",
				Workers:               1,
			},
			Season:     SeasonConfig{Prefix: "ipl", StartMonth: 8},
			Lineup:     LineupConfig{Bucket: time.Minute, LineupWindow: 45 * time.Minute, Size: 10, Streak: 3, LatePolicy: "strict"},
			Simulation: SimulationConfig{Runs: 100},
			Database:   DatabaseConfig{Driver: "sqlite"},
			Export:     ExportConfig{MaxDataPoints: 10},
		}
	}

	ok := base()
	if err := ok.Validate(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	cases := map[string]func(c *Config){
		"zero interval":      func(c *Config) { c.Features.Interval = 0 },
		"inverted zones":     func(c *Config) { c.Features.Zone6Threshold = 5 },
		"unknown policy":     func(c *Config) { c.Features.UnknownPositionPolicy = "midfielder" },
		"zero lineup":        func(c *Config) { c.Lineup.Size = 0 },
		"bad lineup policy":  func(c *Config) { c.Features.MissingLineupPolicy = "guess" },
		"bad late policy":    func(c *Config) { c.Lineup.LatePolicy = "lenient" },
		"bad driver":         func(c *Config) { c.Database.Driver = "mysql" },
		"telegram no token":  func(c *Config) { c.Notify.Telegram.Enabled = true; c.Notify.Telegram.ChatID = "1" },
		"season month range": func(c *Config) { c.Season.StartMonth = 13 },
	}
	for name, mutate := range cases {
		cfg := base()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
