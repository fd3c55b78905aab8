package app

import (
	"fmt"
	"log/slog"

	"slidecraft/internal/compose"
	"slidecraft/internal/deck"
	"slidecraft/internal/export"
	"slidecraft/internal/imagesearch"
	"slidecraft/internal/llm/groq"
	"slidecraft/internal/script"
	"slidecraft/internal/tools"
	"slidecraft/internal/visuals"
	"slidecraft/pkg/config"
	"slidecraft/pkg/prompts"
)

// BuildService validates configuration and assembles the full pipeline.
// Configuration problems are reported here, before any request runs.
func BuildService(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, deck.NewConfigurationError(err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	p, err := prompts.Load()
	if err != nil {
		return nil, deck.NewConfigurationError(fmt.Errorf("load prompts: %w", err))
	}

	llmClient, err := groq.NewClient(cfg.GroqAPIKey, cfg.Groq.Model, p)
	if err != nil {
		return nil, deck.NewConfigurationError(err)
	}

	generator := script.NewGenerator(llmClient, script.Options{
		Timeout:    cfg.Pipeline.ScriptTimeout,
		MaxRetries: cfg.Pipeline.MaxRetries,
	})

	searcher := imagesearch.NewClient(imagesearch.Config{
		AccessKey:    cfg.UnsplashAccessKey,
		RateInterval: cfg.Unsplash.RateInterval,
	})
	fetcher := visuals.NewFetcher(searcher, visuals.Options{
		Timeout: cfg.Pipeline.FetchTimeout,
		Logger:  logger,
	})

	composer := compose.NewComposer()
	exporter := export.NewExporter(export.Options{
		OutputDir:    cfg.Output.Dir,
		TemplatePath: cfg.TemplatePath,
	})

	pipeline := NewPipeline(generator, fetcher, composer, exporter, PipelineOptions{
		WorkDir:     cfg.Output.WorkDir,
		Parallelism: cfg.Pipeline.FetchParallelism,
		Logger:      logger,
	})

	registry := tools.NewRegistry(tools.Deps{
		Generator: generator,
		Fetcher:   fetcher,
		Composer:  composer,
		Exporter:  exporter,
		WorkDir:   cfg.Output.WorkDir,
	})

	return &Service{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		registry: registry,
	}, nil
}
