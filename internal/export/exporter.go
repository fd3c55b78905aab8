// Package export renders a composed presentation into a single
// self-contained HTML artifact and writes it atomically.
package export

import (
	"bytes"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"slidecraft/internal/deck"
	"slidecraft/pkg/slug"
)

//go:embed deck.html
var defaultTemplate string

type Exporter struct {
	outputDir    string
	templatePath string
}

type Options struct {
	OutputDir string
	// TemplatePath overrides the embedded deck template.
	TemplatePath string
}

func NewExporter(opts Options) *Exporter {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "output"
	}
	return &Exporter{outputDir: outputDir, templatePath: opts.TemplatePath}
}

// Export renders the presentation and writes it under the output
// directory. The artifact name is derived from the topic; an existing
// file with the same name gets a numeric suffix instead of being
// overwritten. Returns the artifact path and its download name.
func (e *Exporter) Export(topic string, pres deck.Presentation) (string, string, error) {
	tmpl, err := e.loadTemplate(pres.TemplateRef)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	data := struct {
		Title  string
		Slides []deck.SlideSpec
	}{Title: topic, Slides: pres.Slides}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", "", deck.NewCompositionError(fmt.Errorf("render deck: %w", err))
	}

	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", "", deck.NewExportError(fmt.Errorf("create output dir: %w", err))
	}

	name, err := e.reserveName(topic)
	if err != nil {
		return "", "", err
	}
	path := filepath.Join(e.outputDir, name)

	if err := writeAtomic(e.outputDir, path, buf.Bytes()); err != nil {
		// Drop the empty reservation so no partial artifact remains.
		_ = os.Remove(path)
		return "", "", deck.NewExportError(err)
	}
	return path, name, nil
}

// loadTemplate resolves the deck template: a per-presentation reference
// wins over the configured override, which wins over the embedded
// default.
func (e *Exporter) loadTemplate(templateRef string) (*template.Template, error) {
	path := e.templatePath
	if templateRef != "" {
		path = templateRef
	}

	text := defaultTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, deck.NewCompositionError(fmt.Errorf("read deck template: %w", err))
		}
		text = string(raw)
	}

	tmpl, err := template.New("deck").Funcs(template.FuncMap{
		"markdown": renderMarkdown,
		"dataURI":  assetDataURI,
		"inc":      func(i int) int { return i + 1 },
	}).Parse(text)
	if err != nil {
		return nil, deck.NewCompositionError(fmt.Errorf("parse deck template: %w", err))
	}
	return tmpl, nil
}

// reserveName claims the first free artifact name for the topic:
// slug.html, then slug-2.html, slug-3.html and so on. The claim is an
// exclusive create, so concurrent exports of the same topic each get
// their own name; the rename in writeAtomic later replaces only the
// caller's own reservation.
func (e *Exporter) reserveName(topic string) (string, error) {
	base := slug.Make(topic)
	for i := 1; ; i++ {
		name := base + ".html"
		if i > 1 {
			name = fmt.Sprintf("%s-%d.html", base, i)
		}
		f, err := os.OpenFile(filepath.Join(e.outputDir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", deck.NewExportError(fmt.Errorf("reserve artifact name: %w", err))
		}
		_ = f.Close()
		return name, nil
	}
}

func writeAtomic(dir, path string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".deck-*.html")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	// Bullets render inline, so unwrap the paragraph goldmark adds.
	out := strings.TrimSpace(buf.String())
	out = strings.TrimPrefix(out, "<p>")
	out = strings.TrimSuffix(out, "</p>")
	return template.HTML(out)
}

// assetDataURI embeds a local asset as a base64 data URI so the artifact
// stays a single file. Placeholder assets keep their remote URL.
func assetDataURI(asset deck.ImageAsset) (template.URL, error) {
	if asset.Placeholder || asset.LocalPath == "" {
		return template.URL(asset.SourceURL), nil
	}
	data, err := os.ReadFile(asset.LocalPath)
	if err != nil {
		return "", fmt.Errorf("read asset %s: %w", asset.LocalPath, err)
	}
	return template.URL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data)), nil
}
