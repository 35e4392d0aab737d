package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"matchfeatures/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Logging    logging.Config   `mapstructure:"logging"`
	Paths      PathsConfig      `mapstructure:"paths"`
	Features   FeaturesConfig   `mapstructure:"features"`
	Season     SeasonConfig     `mapstructure:"season"`
	Events     EventsConfig     `mapstructure:"events"`
	Lineup     LineupConfig     `mapstructure:"lineup"`
	Projection ProjectionConfig `mapstructure:"projection"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Export     ExportConfig     `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// PathsConfig locates the input trees and the output directory.
type PathsConfig struct {
	GPSRoot      string `mapstructure:"gps_root"`
	EventsRoot   string `mapstructure:"events_root"`
	LineupsRoot  string `mapstructure:"lineups_root"`
	MetadataFile string `mapstructure:"metadata_file"`
	OutputDir    string `mapstructure:"output_dir"`
}

// FeaturesConfig governs interval aggregation.
type FeaturesConfig struct {
	Interval              time.Duration `mapstructure:"interval"`
	IntervalMinutes       int           `mapstructure:"interval_minutes"`
	Zone5Threshold        float64       `mapstructure:"zone5_threshold"`
	Zone6Threshold        float64       `mapstructure:"zone6_threshold"`
	SampleDelta           time.Duration `mapstructure:"sample_delta"`
	Accelerations         bool          `mapstructure:"accelerations"`
	AccelThreshold        float64       `mapstructure:"accel_threshold"`
	AccelLookahead        int           `mapstructure:"accel_lookahead"`
	Precision             int           `mapstructure:"precision"`
	UnknownPositionPolicy string        `mapstructure:"unknown_position_policy"`
	MissingLineupPolicy   string        `mapstructure:"missing_lineup_policy"`
	Workers               int           `mapstructure:"workers"`
}

// SeasonConfig describes how match dates map onto season folders.
type SeasonConfig struct {
	Prefix     string `mapstructure:"prefix"`
	StartMonth int    `mapstructure:"start_month"`
}

// EventsConfig filters the event log before labelling.
type EventsConfig struct {
	Team             string `mapstructure:"team"`
	ExcludePenalties bool   `mapstructure:"exclude_penalties"`
	OpenPlayOnly     bool   `mapstructure:"open_play_only"`
}

// LineupConfig tunes the substitution inferrer.
type LineupConfig struct {
	Bucket       time.Duration `mapstructure:"bucket"`
	LineupWindow time.Duration `mapstructure:"lineup_window"`
	Size         int           `mapstructure:"size"`
	Streak       int           `mapstructure:"streak"`
	LatePolicy   string        `mapstructure:"late_policy"`
}

// ProjectionConfig selects the stadium reference point.
type ProjectionConfig struct {
	Stadium  string  `mapstructure:"stadium"`
	Lat      float64 `mapstructure:"lat"`
	Lon      float64 `mapstructure:"lon"`
	Rotation float64 `mapstructure:"rotation"`
}

// SimulationConfig parameterises the expected-points simulator.
type SimulationConfig struct {
	Runs int    `mapstructure:"runs"`
	Seed uint64 `mapstructure:"seed"`
	Team string `mapstructure:"team"`
}

// DatabaseConfig encapsulates feature store connectivity.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// MetricsConfig controls the textfile exporter.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// NotifyConfig routes batch summaries.
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram bot used for run summaries.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MATCHFEATURES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Features.IntervalMinutes > 0 {
		cfg.Features.Interval = time.Duration(cfg.Features.IntervalMinutes) * time.Minute
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "matchfeatures")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("paths.gps_root", "data/GPS")
	v.SetDefault("paths.events_root", "data/OPTA")
	v.SetDefault("paths.lineups_root", "data/lineups")
	v.SetDefault("paths.metadata_file", "data/games_metadata.csv")
	v.SetDefault("paths.output_dir", "")

	v.SetDefault("features.interval", "5m")
	v.SetDefault("features.interval_minutes", 0)
	v.SetDefault("features.zone5_threshold", 5.41)
	v.SetDefault("features.zone6_threshold", 6.94)
	v.SetDefault("features.sample_delta", "10ms")
	v.SetDefault("features.accelerations", false)
	v.SetDefault("features.accel_threshold", 3.0)
	v.SetDefault("features.accel_lookahead", 5)
	v.SetDefault("features.precision", 4)
	v.SetDefault("features.unknown_position_policy", "attacker")
	v.SetDefault("features.missing_lineup_policy", "skip")
	v.SetDefault("features.workers", 1)

	v.SetDefault("season.prefix", "ipl")
	v.SetDefault("season.start_month", 8)

	v.SetDefault("events.team", "")
	v.SetDefault("events.exclude_penalties", false)
	v.SetDefault("events.open_play_only", false)

	v.SetDefault("lineup.bucket", "1m")
	v.SetDefault("lineup.lineup_window", "45m")
	v.SetDefault("lineup.size", 10)
	v.SetDefault("lineup.streak", 3)
	v.SetDefault("lineup.late_policy", "strict")

	v.SetDefault("projection.stadium", "sammy_ofer_after_nov")

	v.SetDefault("simulation.runs", 10000)
	v.SetDefault("simulation.seed", 42)
	v.SetDefault("simulation.team", "Maccabi Haifa")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 1000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	f := c.Features
	if f.Interval <= 0 {
		return fmt.Errorf("features.interval must be greater than zero")
	}
	if f.SampleDelta <= 0 {
		return fmt.Errorf("features.sample_delta must be greater than zero")
	}
	if f.Zone5Threshold <= 0 || f.Zone6Threshold <= f.Zone5Threshold {
		return fmt.Errorf("features.zone5_threshold must be positive and below features.zone6_threshold")
	}
	if f.Precision < 0 || f.Precision > 12 {
		return fmt.Errorf("features.precision must be between 0 and 12")
	}
	if f.AccelLookahead <= 0 {
		return fmt.Errorf("features.accel_lookahead must be greater than zero")
	}
	switch f.UnknownPositionPolicy {
	case "attacker", "skip":
	default:
		return fmt.Errorf("features.unknown_position_policy %q is not supported", f.UnknownPositionPolicy)
	}
	switch f.MissingLineupPolicy {
	case "skip", "all_players":
	default:
		return fmt.Errorf("features.missing_lineup_policy %q is not supported", f.MissingLineupPolicy)
	}
	if f.Workers <= 0 {
		return fmt.Errorf("features.workers must be greater than zero")
	}
	if c.Season.StartMonth < 1 || c.Season.StartMonth > 12 {
		return fmt.Errorf("season.start_month must be between 1 and 12")
	}
	if c.Lineup.Bucket <= 0 || c.Lineup.LineupWindow <= 0 {
		return fmt.Errorf("lineup.bucket and lineup.lineup_window must be greater than zero")
	}
	if c.Lineup.Size <= 0 {
		return fmt.Errorf("lineup.size must be greater than zero")
	}
	if c.Lineup.Streak <= 0 {
		return fmt.Errorf("lineup.streak must be greater than zero")
	}
	switch c.Lineup.LatePolicy {
	case "strict", "truncate":
	default:
		return fmt.Errorf("lineup.late_policy %q is not supported", c.Lineup.LatePolicy)
	}
	if c.Simulation.Runs <= 0 {
		return fmt.Errorf("simulation.runs must be greater than zero")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
