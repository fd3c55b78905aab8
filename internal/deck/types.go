// Package deck defines the domain model of a generation run: the request,
// the per-slide script, resolved image assets, composed slides, and the
// result report. All values are transient and owned by a single run.
package deck

import "fmt"

const (
	// MaxSlideCount bounds slide_count in a request.
	MaxSlideCount = 20
	// MaxImagesPerSlide bounds images_per_slide in a request.
	MaxImagesPerSlide = 4
)

// GenerationRequest describes one deck to generate. It is validated once
// when accepted and never mutated afterwards.
type GenerationRequest struct {
	Topic          string `json:"topic"`
	SlideCount     int    `json:"slide_count"`
	Tone           string `json:"tone"`
	ImagesPerSlide int    `json:"images_per_slide"`
	TemplateRef    string `json:"template_reference,omitempty"`
}

// Validate rejects requests the pipeline must not start. Validation
// failures wrap ErrInvalidRequest.
func (r GenerationRequest) Validate() error {
	if r.Topic == "" {
		return fmt.Errorf("%w: topic must not be empty", ErrInvalidRequest)
	}
	if r.SlideCount < 1 || r.SlideCount > MaxSlideCount {
		return fmt.Errorf("%w: slide_count %d outside [1, %d]", ErrInvalidRequest, r.SlideCount, MaxSlideCount)
	}
	if r.ImagesPerSlide < 0 || r.ImagesPerSlide > MaxImagesPerSlide {
		return fmt.Errorf("%w: images_per_slide %d outside [0, %d]", ErrInvalidRequest, r.ImagesPerSlide, MaxImagesPerSlide)
	}
	return nil
}

// ScriptEntry is the text content of one slide before layout.
type ScriptEntry struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Notes   string   `json:"notes,omitempty"`
}

// ImageAsset is one resolved image: where it came from, where its
// normalized copy lives, and how to credit it. Placeholder marks the
// sentinel substitute used when no real image was found.
type ImageAsset struct {
	SourceURL   string `json:"source_url"`
	LocalPath   string `json:"local_path,omitempty"`
	Attribution string `json:"attribution,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// PlaceholderURL is the sentinel source used when image search yields
// nothing and the caller still needs a stable image region.
const PlaceholderURL = "https://dummyimage.com/800x600/cccccc/000000&text=No+image"

// NewPlaceholderAsset returns the sentinel asset for a query with no
// usable search results.
func NewPlaceholderAsset(query string) ImageAsset {
	return ImageAsset{
		SourceURL:   PlaceholderURL,
		Attribution: fmt.Sprintf("placeholder (no image found for %q)", query),
		Width:       800,
		Height:      600,
		Placeholder: true,
	}
}

// RegionLayout records the horizontal split assigned to a slide, in
// percent of slide width. The two values always sum to 100.
type RegionLayout struct {
	TextWidthPct  int `json:"text_width_pct"`
	ImageWidthPct int `json:"image_width_pct"`
}

// SlideSpec is one composed slide: script content, its resolved images,
// and the layout regions they occupy.
type SlideSpec struct {
	Entry  ScriptEntry  `json:"entry"`
	Images []ImageAsset `json:"images"`
	Layout RegionLayout `json:"layout"`
}

// Presentation is the ordered set of composed slides ready for export.
type Presentation struct {
	Slides      []SlideSpec `json:"slides"`
	TemplateRef string      `json:"template_reference,omitempty"`
}

// Warning is a non-fatal per-slide anomaly absorbed by the pipeline.
// Slide is 1-based; 0 means the warning is not tied to one slide.
type Warning struct {
	Slide   int    `json:"slide,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Slide > 0 {
		return fmt.Sprintf("slide %d: %s", w.Slide, w.Message)
	}
	return w.Message
}

// Status reports how a run ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial_success"
	StatusFailed  Status = "failed"
)

// PipelineResult is the report of one completed run.
type PipelineResult struct {
	RunID        string    `json:"run_id"`
	ArtifactPath string    `json:"artifact_path"`
	DownloadName string    `json:"download_reference"`
	Warnings     []Warning `json:"warnings"`
	Status       Status    `json:"status"`
}
