package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"slidecraft/internal/deck"
)

func testPresentation() deck.Presentation {
	return deck.Presentation{
		Slides: []deck.SlideSpec{
			{
				Entry: deck.ScriptEntry{
					Title:   "Why Oceans Matter",
					Bullets: []string{"Cover **71%** of the planet", "Absorb a third of CO2"},
					Notes:   "Open with the NASA photo.",
				},
				Layout: deck.RegionLayout{TextWidthPct: 100, ImageWidthPct: 0},
			},
		},
	}
}

func TestExportWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(Options{OutputDir: dir})

	path, name, err := exporter.Export("Why Oceans Matter", testPresentation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "why-oceans-matter.html" {
		t.Errorf("name = %q", name)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("path %q not under %q", path, dir)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	html := string(content)
	if !strings.Contains(html, "Why Oceans Matter") {
		t.Error("artifact missing slide title")
	}
	if !strings.Contains(html, "<strong>71%</strong>") {
		t.Error("artifact missing rendered markdown bullet")
	}
	if !strings.Contains(html, "width: 100%") {
		t.Error("artifact missing full-width text region")
	}
	if !strings.Contains(html, `<aside class="speaker-notes" hidden>`) {
		t.Error("speaker notes not hidden from the visible region")
	}
}

func TestExportTemplateReferenceOverride(t *testing.T) {
	dir := t.TempDir()
	refPath := filepath.Join(dir, "ref.html")
	if err := os.WriteFile(refPath, []byte(`<html>ref: {{.Title}}</html>`), 0o644); err != nil {
		t.Fatal(err)
	}

	// The per-presentation reference wins over the configured override.
	otherPath := filepath.Join(dir, "other.html")
	if err := os.WriteFile(otherPath, []byte(`<html>other</html>`), 0o644); err != nil {
		t.Fatal(err)
	}

	exporter := NewExporter(Options{OutputDir: dir, TemplatePath: otherPath})
	pres := testPresentation()
	pres.TemplateRef = refPath
	path, _, err := exporter.Export("ref topic", pres)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "ref: ref topic") {
		t.Errorf("template reference not applied: %s", content)
	}
}

func TestExportCollisionSuffix(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(Options{OutputDir: dir})
	pres := testPresentation()

	names := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		_, name, err := exporter.Export("Ocean Deck", pres)
		if err != nil {
			t.Fatalf("Export %d: %v", i, err)
		}
		names = append(names, name)
	}

	want := []string{"ocean-deck.html", "ocean-deck-2.html", "ocean-deck-3.html"}
	for i, name := range names {
		if name != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, name, want[i])
		}
	}
}

func TestExportConcurrentSameTopic(t *testing.T) {
	const exports = 64
	dir := t.TempDir()
	exporter := NewExporter(Options{OutputDir: dir})
	pres := testPresentation()

	var wg sync.WaitGroup
	names := make([]string, exports)
	errs := make([]error, exports)
	for i := 0; i < exports; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, names[i], errs[i] = exporter.Export("Ocean Deck", pres)
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, exports)
	for i := 0; i < exports; i++ {
		if errs[i] != nil {
			t.Fatalf("export %d: %v", i, errs[i])
		}
		if seen[names[i]] {
			t.Errorf("name %q returned twice", names[i])
		}
		seen[names[i]] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != exports {
		t.Errorf("%d artifacts on disk, want %d", len(entries), exports)
	}
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			t.Fatal(err)
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", entry.Name())
		}
	}
}

func TestExportEmbedsLocalImages(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "pic.jpg")
	if err := os.WriteFile(imgPath, []byte("fake-jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	pres := testPresentation()
	pres.Slides[0].Images = []deck.ImageAsset{{
		SourceURL:   "https://images.example/pic",
		LocalPath:   imgPath,
		Attribution: "Photo by Kim on Unsplash",
	}}
	pres.Slides[0].Layout = deck.RegionLayout{TextWidthPct: 55, ImageWidthPct: 45}

	exporter := NewExporter(Options{OutputDir: dir})
	path, _, err := exporter.Export("embedded", pres)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "data:image/jpeg;base64,") {
		t.Error("artifact missing embedded image data")
	}
	if !strings.Contains(string(content), "Photo by Kim on Unsplash") {
		t.Error("artifact missing attribution")
	}
}

func TestExportPlaceholderKeepsRemoteURL(t *testing.T) {
	dir := t.TempDir()
	pres := testPresentation()
	pres.Slides[0].Images = []deck.ImageAsset{deck.NewPlaceholderAsset("oceans")}
	pres.Slides[0].Layout = deck.RegionLayout{TextWidthPct: 55, ImageWidthPct: 45}

	exporter := NewExporter(Options{OutputDir: dir})
	path, _, err := exporter.Export("placeholder", pres)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "dummyimage.com") {
		t.Error("artifact missing placeholder URL")
	}
}

func TestExportCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "custom.html")
	custom := `<html><body>{{range .Slides}}<h1>{{.Entry.Title}}</h1>{{end}}</body></html>`
	if err := os.WriteFile(tmplPath, []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	exporter := NewExporter(Options{OutputDir: dir, TemplatePath: tmplPath})
	path, _, err := exporter.Export("custom", testPresentation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	content, _ := os.ReadFile(path)
	if !strings.Contains(string(content), "<h1>Why Oceans Matter</h1>") {
		t.Error("custom template not applied")
	}
}

func TestExportMissingTemplateIsCompositionError(t *testing.T) {
	exporter := NewExporter(Options{OutputDir: t.TempDir(), TemplatePath: "/nonexistent/deck.html"})
	_, _, err := exporter.Export("t", testPresentation())
	if err == nil {
		t.Fatal("expected error")
	}
	var deckErr *deck.Error
	if !errors.As(err, &deckErr) || deckErr.Category != deck.CategoryComposition {
		t.Errorf("err = %v, want composition category", err)
	}
}

func TestExportUnwritableDirIsExportError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("running as root, permission bits not enforced")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	exporter := NewExporter(Options{OutputDir: dir})
	_, _, err := exporter.Export("t", testPresentation())
	if err == nil {
		t.Fatal("expected error")
	}
	var deckErr *deck.Error
	if !errors.As(err, &deckErr) || deckErr.Category != deck.CategoryExport {
		t.Errorf("err = %v, want export category", err)
	}
}
