package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"slidecraft/internal/compose"
	"slidecraft/internal/deck"
)

// ScriptSource produces the per-slide script for a topic.
type ScriptSource interface {
	Generate(ctx context.Context, topic string, slideCount int, tone string) ([]deck.ScriptEntry, []deck.Warning, error)
}

// ImageFetcher resolves one slide's query into stored image assets.
type ImageFetcher interface {
	Fetch(ctx context.Context, dir, query string, count int) ([]deck.ImageAsset, error)
}

// ArtifactExporter renders and writes the final deck.
type ArtifactExporter interface {
	Export(topic string, pres deck.Presentation) (path, downloadName string, err error)
}

// Pipeline runs one deck generation end to end: script, image fan-out,
// composition, export. A Pipeline is stateless across runs and safe for
// concurrent use.
type Pipeline struct {
	scripts     ScriptSource
	images      ImageFetcher
	composer    *compose.Composer
	exporter    ArtifactExporter
	workDir     string
	parallelism int
	logger      *slog.Logger
}

type PipelineOptions struct {
	WorkDir string
	// Parallelism bounds concurrent per-slide image fetches.
	Parallelism int
	Logger      *slog.Logger
}

func NewPipeline(scripts ScriptSource, images ImageFetcher, composer *compose.Composer, exporter ArtifactExporter, opts PipelineOptions) *Pipeline {
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 3
	}
	workDir := opts.WorkDir
	if workDir == "" {
		workDir = ".work"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		scripts:     scripts,
		images:      images,
		composer:    composer,
		exporter:    exporter,
		workDir:     workDir,
		parallelism: parallelism,
		logger:      logger,
	}
}

// Run executes one generation request. Script failure aborts the run;
// image problems degrade per slide and surface as warnings in the
// result. The returned result is nil exactly when err is non-nil.
func (p *Pipeline) Run(ctx context.Context, req deck.GenerationRequest) (*deck.PipelineResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sess, err := newSession(p.workDir)
	if err != nil {
		return nil, deck.NewExportError(err)
	}
	defer sess.cleanup()

	logger := p.logger.With("run_id", sess.id, "topic", req.Topic)
	logger.Info("run started", "slides", req.SlideCount, "images_per_slide", req.ImagesPerSlide)

	entries, warnings, err := p.scripts.Generate(ctx, req.Topic, req.SlideCount, req.Tone)
	if err != nil {
		logger.Error("script generation failed", "error", err)
		return nil, err
	}

	slideImages, fetchWarnings, err := p.fetchAll(ctx, sess.dir, req, entries)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, fetchWarnings...)

	pres := deck.Presentation{TemplateRef: req.TemplateRef}
	for i, entry := range entries {
		spec, composeWarnings := p.composer.Compose(i, entry, slideImages[i])
		warnings = append(warnings, composeWarnings...)
		pres.Slides = append(pres.Slides, spec)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, name, err := p.exporter.Export(req.Topic, pres)
	if err != nil {
		logger.Error("export failed", "error", err)
		return nil, err
	}

	status := deck.StatusSuccess
	if len(warnings) > 0 {
		status = deck.StatusPartial
	}
	logger.Info("run finished", "status", status, "artifact", name, "warnings", len(warnings))

	return &deck.PipelineResult{
		RunID:        sess.id,
		ArtifactPath: path,
		DownloadName: name,
		Warnings:     warnings,
		Status:       status,
	}, nil
}

// fetchAll fans out one fetch per slide, then selects images
// sequentially so the same photo is not repeated across slides.
func (p *Pipeline) fetchAll(ctx context.Context, dir string, req deck.GenerationRequest, entries []deck.ScriptEntry) ([][]deck.ImageAsset, []deck.Warning, error) {
	candidates := make([][]deck.ImageAsset, len(entries))
	if req.ImagesPerSlide == 0 {
		return candidates, nil, nil
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.parallelism)
	for i, entry := range entries {
		eg.Go(func() error {
			query := slideQuery(req.Topic, entry)
			assets, err := p.images.Fetch(egCtx, dir, query, req.ImagesPerSlide)
			if err != nil {
				return fmt.Errorf("fetch images for slide %d: %w", i+1, err)
			}
			candidates[i] = assets
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	selected := make([][]deck.ImageAsset, len(entries))
	var warnings []deck.Warning
	used := make(map[string]bool)
	for i, pool := range candidates {
		for _, asset := range pool {
			if len(selected[i]) >= req.ImagesPerSlide {
				break
			}
			if used[asset.SourceURL] {
				continue
			}
			used[asset.SourceURL] = true
			selected[i] = append(selected[i], asset)
		}
		// Better a repeated image than an empty region, so fall back to
		// already-used candidates before giving up.
		for _, asset := range pool {
			if len(selected[i]) >= req.ImagesPerSlide {
				break
			}
			if containsAsset(selected[i], asset.SourceURL) {
				continue
			}
			selected[i] = append(selected[i], asset)
		}
		// An empty slide keeps its empty asset list: the composer
		// reclaims the image region for text. Placeholder assets are
		// only handed out through the tool surface.
		if len(selected[i]) == 0 {
			warnings = append(warnings, deck.Warning{
				Slide:   i + 1,
				Message: "no image found, image region reclaimed for text",
			})
		}
	}
	return selected, warnings, nil
}

func slideQuery(topic string, entry deck.ScriptEntry) string {
	if entry.Title == "" {
		return topic
	}
	return fmt.Sprintf("%s %s", topic, entry.Title)
}

func containsAsset(assets []deck.ImageAsset, sourceURL string) bool {
	for _, a := range assets {
		if a.SourceURL == sourceURL {
			return true
		}
	}
	return false
}
