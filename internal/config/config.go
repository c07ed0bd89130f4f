package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"opsched/internal/aco"
	"opsched/internal/jobshop"
	"opsched/internal/rules"
)

// EnvPrefix marks environment overrides, e.g. OPSCHED_ACO__NUMANTS=40.
const EnvPrefix = "OPSCHED_"

type Config struct {
	ACO      aco.Config     `json:"aco"`
	Schedule ScheduleConfig `json:"schedule"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
	Bench    BenchConfig    `json:"bench"`
}

// ScheduleConfig holds the defaults of schedule-operations.
type ScheduleConfig struct {
	Rule    string          `json:"rule"`
	Mode    string          `json:"mode"`
	JobShop jobshop.Options `json:"jobShop"`
}

func (c *ScheduleConfig) SetDefaults() {
	if c.Rule == "" {
		c.Rule = string(rules.FIFO)
	}
	if c.JobShop.MaxEvents <= 0 {
		c.JobShop.MaxEvents = jobshop.DefaultMaxEvents
	}
}

func (c ScheduleConfig) Validate() error {
	if _, err := rules.Parse(c.Rule); err != nil {
		return err
	}
	if c.JobShop.MaxTime < 0 {
		return fmt.Errorf("schedule.jobShop.maxTime must be >= 0")
	}
	return nil
}

// LoggingConfig selects the log level and component name.
type LoggingConfig struct {
	Level     string `json:"level"`
	Component string `json:"component"`
}

func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Component == "" {
		c.Component = "opsched"
	}
}

func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "trace", "debug", "info", "warn", "error", "disabled":
		return nil
	default:
		return fmt.Errorf("unknown log level %s", c.Level)
	}
}

// MetricsConfig enables the Prometheus sink.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

func (c *MetricsConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":9100"
	}
}

// BenchConfig holds defaults of the benchmark command.
type BenchConfig struct {
	Sizes        []int   `json:"sizes"`
	Runs         int     `json:"runs"`
	Seed         int64   `json:"seed"`
	InstanceSeed int64   `json:"instanceSeed"`
	Area         float64 `json:"area"`
	Tools        int     `json:"tools"`
	Out          string  `json:"out"`
	DB           string  `json:"db"`
}

func (c *BenchConfig) SetDefaults() {
	if len(c.Sizes) == 0 {
		c.Sizes = []int{20, 50, 100}
	}
	if c.Runs <= 0 {
		c.Runs = 10
	}
	if c.Seed == 0 {
		c.Seed = 1000
	}
	if c.InstanceSeed == 0 {
		c.InstanceSeed = 777
	}
	if c.Area <= 0 {
		c.Area = 500
	}
	if c.Out == "" {
		c.Out = "artifacts/results.csv"
	}
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{ACO: aco.DefaultConfig()}
	cfg.SetDefaults()
	return cfg
}

func (c *Config) SetDefaults() {
	c.Schedule.SetDefaults()
	c.Logging.SetDefaults()
	c.Metrics.SetDefaults()
	c.Bench.SetDefaults()
}

func (c Config) Validate() error {
	if err := c.ACO.Validate(); err != nil {
		return fmt.Errorf("aco: %w", err)
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Load reads path (yaml or json) over the defaults and applies OPSCHED_*
// environment overrides. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
