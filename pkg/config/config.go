// Package config loads process configuration from the environment and
// an optional config.yaml, applying defaults for everything unset.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath       = "config.yaml"
	defaultOutputDir        = "./output"
	defaultWorkDir          = "./.work"
	defaultGroqModel        = "llama-3.3-70b-versatile"
	defaultFetchParallelism = 3
	defaultFetchTimeout     = 10 * time.Second
	defaultScriptTimeout    = 60 * time.Second
	defaultMaxRetries       = 3
	defaultSearchInterval   = 500 * time.Millisecond
)

type Config struct {
	GroqAPIKey        string
	UnsplashAccessKey string
	TemplatePath      string

	Groq     GroqConfig     `yaml:"groq"`
	Unsplash UnsplashConfig `yaml:"unsplash"`
	Output   OutputConfig   `yaml:"output"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

type GroqConfig struct {
	Model string `yaml:"model"`
}

type UnsplashConfig struct {
	// RateInterval is the minimum spacing between search API calls.
	RateInterval time.Duration `yaml:"rate_interval"`
}

type OutputConfig struct {
	// Dir receives finished artifacts.
	Dir string `yaml:"dir"`
	// WorkDir holds per-run intermediate files (downloaded images).
	WorkDir string `yaml:"work_dir"`
}

type PipelineConfig struct {
	// FetchParallelism bounds concurrent image fetches.
	FetchParallelism int           `yaml:"fetch_parallelism"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout"`
	ScriptTimeout    time.Duration `yaml:"script_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		UnsplashAccessKey: os.Getenv("UNSPLASH_ACCESS_KEY"),
		TemplatePath:      os.Getenv("SLIDE_TEMPLATE"),
	}

	loadYAMLConfig(cfg)
	applyDefaults(cfg)

	return cfg
}

func loadYAMLConfig(cfg *Config) {
	data, err := os.ReadFile(defaultConfigPath)
	if err != nil {
		slog.Warn("No config.yaml found, using defaults")
		return
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Error("Failed to parse config.yaml", "error", err)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Groq.Model == "" {
		cfg.Groq.Model = defaultGroqModel
	}
	if cfg.Unsplash.RateInterval == 0 {
		cfg.Unsplash.RateInterval = defaultSearchInterval
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = defaultOutputDir
	}
	if cfg.Output.WorkDir == "" {
		cfg.Output.WorkDir = defaultWorkDir
	}
	if cfg.Pipeline.FetchParallelism == 0 {
		cfg.Pipeline.FetchParallelism = defaultFetchParallelism
	}
	if cfg.Pipeline.FetchTimeout == 0 {
		cfg.Pipeline.FetchTimeout = defaultFetchTimeout
	}
	if cfg.Pipeline.ScriptTimeout == 0 {
		cfg.Pipeline.ScriptTimeout = defaultScriptTimeout
	}
	if cfg.Pipeline.MaxRetries == 0 {
		cfg.Pipeline.MaxRetries = defaultMaxRetries
	}
}

// Validate reports missing credentials and unreadable template overrides.
// It runs once at startup; a failure here never surfaces as a per-request
// error.
func (c *Config) Validate() error {
	var missing []string
	if c.GroqAPIKey == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if c.UnsplashAccessKey == "" {
		missing = append(missing, "UNSPLASH_ACCESS_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.TemplatePath != "" {
		if _, err := os.Stat(c.TemplatePath); err != nil {
			return fmt.Errorf("template override %s: %w", c.TemplatePath, err)
		}
	}

	return nil
}
