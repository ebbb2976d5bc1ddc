// Package config provides configuration loading for aisleflow.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/aisleflow/internal/world"
)

// Config contains all aisleflow settings.
type Config struct {
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Layout     LayoutConfig     `json:"layout" yaml:"layout"`
	Storage    StorageConfig    `json:"storage" yaml:"storage"`
	API        APIConfig        `json:"api" yaml:"api"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Entropy    EntropyConfig    `json:"entropy" yaml:"entropy"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// SimulationConfig sizes and paces a run.
type SimulationConfig struct {
	Shoppers    int           `json:"shoppers" yaml:"shoppers"`
	Ticks       int           `json:"ticks" yaml:"ticks"`
	Seed        int64         `json:"seed" yaml:"seed"` // 0 = draw a fresh seed
	ExploreRate float64       `json:"explore_rate" yaml:"explore_rate"`
	ReportEvery int           `json:"report_every" yaml:"report_every"`
	Interval    time.Duration `json:"interval" yaml:"interval"` // Serve mode tick pacing
}

// LayoutConfig selects where the store layout comes from.
type LayoutConfig struct {
	// File is a layout file, one row per line. Empty = generate.
	File   string `json:"file,omitempty" yaml:"file,omitempty"`
	Style  string `json:"style" yaml:"style"` // "striped" or "noise"
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// StorageConfig selects the run store.
type StorageConfig struct {
	Driver string `json:"driver" yaml:"driver"` // "sqlite" or "postgres"
	DSN    string `json:"dsn" yaml:"dsn"`
}

// APIConfig configures the HTTP server.
type APIConfig struct {
	Port        int      `json:"port" yaml:"port"`
	AdminKey    string   `json:"admin_key,omitempty" yaml:"admin_key,omitempty"` // Empty = admin POSTs disabled
	CORSOrigins []string `json:"cors_origins,omitempty" yaml:"cors_origins,omitempty"`
}

// LLMConfig configures the layout advisor's model access.
type LLMConfig struct {
	Enabled      bool          `json:"enabled" yaml:"enabled"`
	APIKey       string        `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL      string        `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model        string        `json:"model" yaml:"model"`
	Timeout      time.Duration `json:"timeout" yaml:"timeout"`
	MaxPerMinute int           `json:"max_per_minute" yaml:"max_per_minute"`
}

// EntropyConfig configures the seed source for unseeded runs.
type EntropyConfig struct {
	RandomOrgKey string `json:"random_org_key,omitempty" yaml:"random_org_key,omitempty"`
}

// LoggingConfig configures log verbosity: "info" (default), "debug", or "trace".
type LoggingConfig struct {
	Level string `json:"level" yaml:"level"`
}

// RedactedAPIKey returns the API key with most characters masked.
func (c LLMConfig) RedactedAPIKey() string {
	return redact(c.APIKey)
}

// String implements fmt.Stringer to prevent accidental API key logging.
func (c LLMConfig) String() string {
	return fmt.Sprintf("LLMConfig{Enabled:%t, APIKey:%s, Model:%s}", c.Enabled, c.RedactedAPIKey(), c.Model)
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	if len(key) < 12 {
		return "(set)"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	gen := world.DefaultGenConfig()
	return &Config{
		Simulation: SimulationConfig{
			Shoppers:    50,
			Ticks:       400,
			Seed:        0,
			ExploreRate: 0.1,
			ReportEvery: 25,
			Interval:    100 * time.Millisecond,
		},
		Layout: LayoutConfig{
			Style:  gen.Style,
			Width:  gen.Width,
			Height: gen.Height,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "data/aisleflow.db",
		},
		API: APIConfig{
			Port: 8080,
		},
		LLM: LLMConfig{
			Model:        "claude-haiku-4-5-20251001",
			Timeout:      60 * time.Second,
			MaxPerMinute: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds the configuration: defaults, then path (if non-empty), then
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileCfg
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.LLM.APIKey = expandEnvVars(cfg.LLM.APIKey)
	cfg.API.AdminKey = expandEnvVars(cfg.API.AdminKey)
	cfg.Storage.DSN = expandEnvVars(cfg.Storage.DSN)
	cfg.Entropy.RandomOrgKey = expandEnvVars(cfg.Entropy.RandomOrgKey)

	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Simulation.Shoppers < 0 {
		return fmt.Errorf("shoppers must be non-negative, got %d", c.Simulation.Shoppers)
	}
	if c.Simulation.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", c.Simulation.Ticks)
	}
	if c.Simulation.ExploreRate < 0 || c.Simulation.ExploreRate > 1 {
		return fmt.Errorf("explore_rate must be between 0 and 1, got %f", c.Simulation.ExploreRate)
	}
	if c.Simulation.ReportEvery < 0 {
		return fmt.Errorf("report_every must be non-negative, got %d", c.Simulation.ReportEvery)
	}
	if c.Simulation.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %v", c.Simulation.Interval)
	}

	if c.Layout.File == "" {
		if c.Layout.Style != world.StyleStriped && c.Layout.Style != world.StyleNoise {
			return fmt.Errorf("invalid layout style: %s (valid: %s, %s)", c.Layout.Style, world.StyleStriped, world.StyleNoise)
		}
		if c.Layout.Width < world.MinLayoutSize || c.Layout.Height < world.MinLayoutSize {
			return fmt.Errorf("layout must be at least %dx%d, got %dx%d", world.MinLayoutSize, world.MinLayoutSize, c.Layout.Width, c.Layout.Height)
		}
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true}
	if !validDrivers[c.Storage.Driver] {
		return fmt.Errorf("invalid storage driver: %s (valid: sqlite, postgres)", c.Storage.Driver)
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}

	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout must be non-negative, got %v", c.LLM.Timeout)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AISLEFLOW_SHOPPERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Shoppers = n
		}
	}
	if v := os.Getenv("AISLEFLOW_TICKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.Ticks = n
		}
	}
	if v := os.Getenv("AISLEFLOW_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulation.Seed = n
		}
	}
	if v := os.Getenv("AISLEFLOW_LAYOUT_FILE"); v != "" {
		cfg.Layout.File = v
	}
	if v := os.Getenv("AISLEFLOW_STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("AISLEFLOW_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("AISLEFLOW_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = n
		}
	}
	if v := os.Getenv("AISLEFLOW_ADMIN_KEY"); v != "" {
		cfg.API.AdminKey = v
	}
	if v := os.Getenv("AISLEFLOW_LLM_ENABLED"); v != "" {
		cfg.LLM.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RANDOM_ORG_API_KEY"); v != "" {
		cfg.Entropy.RandomOrgKey = v
	}
	if v := os.Getenv("AISLEFLOW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars expands ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		name := envVarPattern.FindStringSubmatch(m)[1]
		return os.Getenv(name)
	})
}
