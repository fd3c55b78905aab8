// Package tools exposes the pipeline stages as named, JSON-argument
// tool invocations so external callers can drive each stage on its own.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"slidecraft/internal/compose"
	"slidecraft/internal/deck"
	"slidecraft/internal/export"
	"slidecraft/internal/script"
	"slidecraft/internal/visuals"
)

// Tool names.
const (
	ToolWriteScript    = "write_script"
	ToolFetchImages    = "fetch_images"
	ToolCreateSlide    = "create_slide"
	ToolExportArtifact = "export_artifact"
)

// Handler executes one tool against raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

type Tool struct {
	Name        string
	Description string
	Handler     Handler
}

type Registry struct {
	tools map[string]Tool
}

// ImageFetcher resolves a query into stored assets. *visuals.Fetcher
// satisfies it.
type ImageFetcher interface {
	Fetch(ctx context.Context, dir, query string, count int) ([]deck.ImageAsset, error)
}

type Deps struct {
	Generator *script.Generator
	Fetcher   ImageFetcher
	Composer  *compose.Composer
	Exporter  *export.Exporter
	// WorkDir receives images fetched through the tool surface. Each
	// invocation gets its own subdirectory.
	WorkDir string
}

func NewRegistry(deps Deps) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.register(Tool{
		Name:        ToolWriteScript,
		Description: "Generate a slide-by-slide script for a topic.",
		Handler:     writeScript(deps.Generator),
	})
	r.register(Tool{
		Name:        ToolFetchImages,
		Description: "Search and download images for a slide query.",
		Handler:     fetchImages(deps.Fetcher, deps.WorkDir),
	})
	r.register(Tool{
		Name:        ToolCreateSlide,
		Description: "Compose one slide from script content and images.",
		Handler:     createSlide(deps.Composer),
	})
	r.register(Tool{
		Name:        ToolExportArtifact,
		Description: "Render composed slides into a deck artifact.",
		Handler:     exportArtifact(deps.Exporter),
	})
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
}

// Names lists registered tools in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke dispatches a tool call by name. Unknown names and malformed
// arguments are reported as invalid-request errors.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (any, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown tool %q", deck.ErrInvalidRequest, name)
	}
	return tool.Handler(ctx, args)
}

type writeScriptArgs struct {
	Topic      string `json:"topic"`
	SlideCount int    `json:"slide_count"`
	Tone       string `json:"tone"`
}

type writeScriptResult struct {
	Slides   []deck.ScriptEntry `json:"slides"`
	Warnings []string           `json:"warnings,omitempty"`
}

func writeScript(gen *script.Generator) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req writeScriptArgs
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		entries, warnings, err := gen.Generate(ctx, req.Topic, req.SlideCount, req.Tone)
		if err != nil {
			return nil, err
		}
		return writeScriptResult{Slides: entries, Warnings: warningStrings(warnings)}, nil
	}
}

type fetchImagesArgs struct {
	Query string `json:"query"`
	Count int    `json:"count"`
}

type fetchImagesResult struct {
	Images []deck.ImageAsset `json:"images"`
}

func fetchImages(fetcher ImageFetcher, workDir string) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var req fetchImagesArgs
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		if req.Query == "" {
			return nil, fmt.Errorf("%w: query must not be empty", deck.ErrInvalidRequest)
		}
		if req.Count < 0 || req.Count > deck.MaxImagesPerSlide {
			return nil, fmt.Errorf("%w: count %d outside [0, %d]", deck.ErrInvalidRequest, req.Count, deck.MaxImagesPerSlide)
		}

		// Each invocation downloads into its own subdirectory. Stored
		// assets must outlive the call because a later export_artifact
		// reads them by path, so only empty directories are removed.
		dir := filepath.Join(workDir, "tool-"+uuid.NewString())
		if err := visuals.EnsureDir(dir); err != nil {
			return nil, deck.NewExportError(err)
		}
		assets, err := fetcher.Fetch(ctx, dir, req.Query, req.Count)
		if err != nil {
			_ = os.Remove(dir)
			return nil, err
		}
		if len(assets) == 0 {
			_ = os.Remove(dir)
		}
		// The tool surface always answers with something renderable.
		if len(assets) == 0 && req.Count > 0 {
			assets = []deck.ImageAsset{deck.NewPlaceholderAsset(req.Query)}
		}
		return fetchImagesResult{Images: assets}, nil
	}
}

type createSlideArgs struct {
	Index  int               `json:"index"`
	Entry  deck.ScriptEntry  `json:"entry"`
	Images []deck.ImageAsset `json:"images"`
}

type createSlideResult struct {
	Slide    deck.SlideSpec `json:"slide"`
	Warnings []string       `json:"warnings,omitempty"`
}

func createSlide(composer *compose.Composer) Handler {
	return func(_ context.Context, args json.RawMessage) (any, error) {
		var req createSlideArgs
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		if req.Index < 0 || req.Index >= deck.MaxSlideCount {
			return nil, fmt.Errorf("%w: index %d outside [0, %d)", deck.ErrInvalidRequest, req.Index, deck.MaxSlideCount)
		}
		spec, warnings := composer.Compose(req.Index, req.Entry, req.Images)
		return createSlideResult{Slide: spec, Warnings: warningStrings(warnings)}, nil
	}
}

type exportArtifactArgs struct {
	Topic       string           `json:"topic"`
	Slides      []deck.SlideSpec `json:"slides"`
	TemplateRef string           `json:"template_reference,omitempty"`
}

type exportArtifactResult struct {
	ArtifactPath string `json:"artifact_path"`
	DownloadName string `json:"download_name"`
}

func exportArtifact(exporter *export.Exporter) Handler {
	return func(_ context.Context, args json.RawMessage) (any, error) {
		var req exportArtifactArgs
		if err := decodeArgs(args, &req); err != nil {
			return nil, err
		}
		if req.Topic == "" {
			return nil, fmt.Errorf("%w: topic must not be empty", deck.ErrInvalidRequest)
		}
		if len(req.Slides) == 0 {
			return nil, fmt.Errorf("%w: slides must not be empty", deck.ErrInvalidRequest)
		}
		path, name, err := exporter.Export(req.Topic, deck.Presentation{
			Slides:      req.Slides,
			TemplateRef: req.TemplateRef,
		})
		if err != nil {
			return nil, err
		}
		return exportArtifactResult{ArtifactPath: path, DownloadName: name}, nil
	}
}

func decodeArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing arguments", deck.ErrInvalidRequest)
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("%w: %v", deck.ErrInvalidRequest, err)
	}
	return nil
}

func warningStrings(warnings []deck.Warning) []string {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.String()
	}
	return out
}
