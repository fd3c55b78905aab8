package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Groq.Model != defaultGroqModel {
		t.Errorf("Groq.Model = %q, want %q", cfg.Groq.Model, defaultGroqModel)
	}
	if cfg.Output.Dir != defaultOutputDir {
		t.Errorf("Output.Dir = %q, want %q", cfg.Output.Dir, defaultOutputDir)
	}
	if cfg.Pipeline.FetchParallelism != defaultFetchParallelism {
		t.Errorf("FetchParallelism = %d, want %d", cfg.Pipeline.FetchParallelism, defaultFetchParallelism)
	}
	if cfg.Pipeline.FetchTimeout != defaultFetchTimeout {
		t.Errorf("FetchTimeout = %v, want %v", cfg.Pipeline.FetchTimeout, defaultFetchTimeout)
	}
	if cfg.Pipeline.MaxRetries != defaultMaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.Pipeline.MaxRetries, defaultMaxRetries)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{
		Groq: GroqConfig{Model: "custom-model"},
		Pipeline: PipelineConfig{
			FetchParallelism: 8,
			FetchTimeout:     2 * time.Second,
		},
	}
	applyDefaults(cfg)

	if cfg.Groq.Model != "custom-model" {
		t.Errorf("Groq.Model = %q, want %q", cfg.Groq.Model, "custom-model")
	}
	if cfg.Pipeline.FetchParallelism != 8 {
		t.Errorf("FetchParallelism = %d, want 8", cfg.Pipeline.FetchParallelism)
	}
	if cfg.Pipeline.FetchTimeout != 2*time.Second {
		t.Errorf("FetchTimeout = %v, want 2s", cfg.Pipeline.FetchTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "allCredentialsSet",
			cfg: Config{
				GroqAPIKey:        "gsk_test",
				UnsplashAccessKey: "unsplash_test",
			},
			wantErr: false,
		},
		{
			name: "missingGroqKey",
			cfg: Config{
				UnsplashAccessKey: "unsplash_test",
			},
			wantErr: true,
		},
		{
			name: "missingUnsplashKey",
			cfg: Config{
				GroqAPIKey: "gsk_test",
			},
			wantErr: true,
		},
		{
			name:    "missingBoth",
			cfg:     Config{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTemplateOverride(t *testing.T) {
	tmpDir := t.TempDir()
	existing := filepath.Join(tmpDir, "template.html")
	if err := os.WriteFile(existing, []byte("<html></html>"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Config{
		GroqAPIKey:        "gsk_test",
		UnsplashAccessKey: "unsplash_test",
		TemplatePath:      existing,
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with existing template = %v, want nil", err)
	}

	cfg.TemplatePath = filepath.Join(tmpDir, "missing.html")
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with missing template should fail")
	}
}
