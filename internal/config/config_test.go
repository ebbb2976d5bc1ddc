package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Simulation.Shoppers != 50 || cfg.Simulation.Ticks != 400 {
		t.Errorf("defaults shoppers=%d ticks=%d, want 50/400", cfg.Simulation.Shoppers, cfg.Simulation.Ticks)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Storage.Driver)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative shoppers", func(c *Config) { c.Simulation.Shoppers = -1 }, "shoppers"},
		{"negative ticks", func(c *Config) { c.Simulation.Ticks = -5 }, "ticks"},
		{"explore rate", func(c *Config) { c.Simulation.ExploreRate = 2 }, "explore_rate"},
		{"layout style", func(c *Config) { c.Layout.Style = "maze" }, "layout style"},
		{"layout too small", func(c *Config) { c.Layout.Width = 4 }, "at least"},
		{"driver", func(c *Config) { c.Storage.Driver = "mysql" }, "storage driver"},
		{"port", func(c *Config) { c.API.Port = 70000 }, "port"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
		{"layout file skips generator checks", func(c *Config) {
			c.Layout.File = "store.txt"
			c.Layout.Style = "maze"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("TEST_AISLEFLOW_KEY", "sk-ant-abcdefghijklmnop")

	path := filepath.Join(t.TempDir(), "aisleflow.yaml")
	data := `
simulation:
  shoppers: 12
  ticks: 90
  interval: 250ms
layout:
  style: noise
storage:
  driver: postgres
  dsn: postgres://localhost/aisleflow
llm:
  enabled: true
  api_key: ${TEST_AISLEFLOW_KEY}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Simulation.Shoppers != 12 || cfg.Simulation.Ticks != 90 {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Simulation.Interval != 250*time.Millisecond {
		t.Errorf("interval = %v, want 250ms", cfg.Simulation.Interval)
	}
	if cfg.Layout.Style != "noise" || cfg.Layout.Width != 48 {
		t.Errorf("layout = %+v, want noise over default size", cfg.Layout)
	}
	if cfg.Storage.Driver != "postgres" {
		t.Errorf("driver = %q", cfg.Storage.Driver)
	}
	if cfg.LLM.APIKey != "sk-ant-abcdefghijklmnop" {
		t.Errorf("api key not expanded: %q", cfg.LLM.APIKey)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("simulation: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AISLEFLOW_SHOPPERS", "7")
	t.Setenv("AISLEFLOW_SEED", "1234")
	t.Setenv("AISLEFLOW_STORAGE_DRIVER", "postgres")
	t.Setenv("AISLEFLOW_LLM_ENABLED", "1")
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	t.Setenv("AISLEFLOW_LOG_LEVEL", "debug")
	t.Setenv("AISLEFLOW_PORT", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Simulation.Shoppers != 7 || cfg.Simulation.Seed != 1234 {
		t.Errorf("simulation = %+v", cfg.Simulation)
	}
	if cfg.Storage.Driver != "postgres" || !cfg.LLM.Enabled || cfg.LLM.APIKey != "from-env" {
		t.Errorf("overrides not applied: storage=%+v llm=%s", cfg.Storage, cfg.LLM)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("unparseable port should be ignored, got %d", cfg.API.Port)
	}
}

func TestLLMConfigRedacts(t *testing.T) {
	c := LLMConfig{APIKey: "sk-ant-1234567890abcdef", Model: "m"}
	s := c.String()
	if strings.Contains(s, "1234567890") {
		t.Errorf("String() leaked the key: %s", s)
	}
	if got := c.RedactedAPIKey(); got != "sk-a...cdef" {
		t.Errorf("RedactedAPIKey = %q", got)
	}
	if got := (LLMConfig{APIKey: "short"}).RedactedAPIKey(); got != "(set)" {
		t.Errorf("short key redacted as %q", got)
	}
}
