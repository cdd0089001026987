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

	"schedule-importer/formatter"
	"schedule-importer/logger"
)

// EnvPrefix marks environment variables that override file settings.
// IMPORTER_OUTPUT__FORMAT=json sets output.format.
const EnvPrefix = "IMPORTER_"

type Config struct {
	Input   InputConfig   `json:"input"`
	Output  OutputConfig  `json:"output"`
	Store   StoreConfig   `json:"store"`
	Metrics MetricsConfig `json:"metrics"`
	Logging logger.Config `json:"logging"`
}

// InputConfig selects the source files.
type InputConfig struct {
	Dir     string `json:"dir"`
	Pattern string `json:"pattern"`
}

// OutputConfig selects how converted schedules are rendered.
type OutputConfig struct {
	Format string `json:"format"`
	// Dir receives one file per source. Empty writes to stdout.
	Dir string `json:"dir"`
}

// StoreConfig enables SQLite persistence of converted schedules.
type StoreConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// MetricsConfig controls Prometheus exposition.
type MetricsConfig struct {
	Addr    string `json:"addr"`
	PushURL string `json:"push_url"`
	Job     string `json:"job"`
}

// Load reads the configuration file at path, if any, and applies
// environment overrides on top of it.
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
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	if c.Input.Dir == "" {
		c.Input.Dir = "csv"
	}
	if c.Input.Pattern == "" {
		c.Input.Pattern = "*.csv"
	}
	if c.Output.Format == "" {
		c.Output.Format = formatter.FormatNameText
	}
	if c.Store.Path == "" {
		c.Store.Path = "schedules.db"
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "schedule_importer"
	}
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if _, err := filepath.Match(c.Input.Pattern, ""); err != nil {
		return fmt.Errorf("input.pattern: %w", err)
	}
	if !formatter.Valid(c.Output.Format) {
		return fmt.Errorf("output.format must be one of %s (got: %s)",
			strings.Join(formatter.Names(), ", "), c.Output.Format)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
