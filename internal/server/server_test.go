package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slidecraft/internal/app"
	"slidecraft/pkg/config"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	outputDir := t.TempDir()
	cfg := &config.Config{
		GroqAPIKey:        "test-groq-key",
		UnsplashAccessKey: "test-unsplash-key",
	}
	cfg.Groq.Model = "llama-3.3-70b-versatile"
	cfg.Output.Dir = outputDir
	cfg.Output.WorkDir = t.TempDir()
	cfg.Pipeline.FetchParallelism = 1

	service, err := app.BuildService(cfg, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("BuildService: %v", err)
	}
	return New(service), outputDir
}

func TestGenerateRejectsMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"topic":"","slide_count":3}`
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !strings.Contains(resp["error"], "topic") {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestGenerateRejectsOutOfRangeSlideCount(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"topic":"oceans","slide_count":21}`
	req := httptest.NewRequest(http.MethodPost, "/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestToolCallUnknownTool(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"tool":"no_such_tool","arguments":{}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestToolCallCreateSlide(t *testing.T) {
	srv, _ := newTestServer(t)
	body := `{"tool":"create_slide","arguments":{"index":0,"entry":{"title":"Budget","bullets":["q1"]},"images":[]}}`
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Result struct {
			Slide struct {
				Layout struct {
					TextWidthPct int `json:"text_width_pct"`
				} `json:"layout"`
			} `json:"slide"`
		} `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp.Result.Slide.Layout.TextWidthPct != 100 {
		t.Errorf("text width = %d, want 100", resp.Result.Slide.Layout.TextWidthPct)
	}
}

func TestManifestServed(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/.well-known/mcp/manifest.yaml", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, tool := range []string{"write_script", "fetch_images", "create_slide", "export_artifact"} {
		if !strings.Contains(body, tool) {
			t.Errorf("manifest missing tool %q", tool)
		}
	}
}

func TestArtifactDownload(t *testing.T) {
	srv, outputDir := newTestServer(t)
	content := "<html>deck</html>"
	if err := os.WriteFile(filepath.Join(outputDir, "my-deck.html"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/artifacts/my-deck.html", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != content {
		t.Errorf("body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "my-deck.html") {
		t.Errorf("Content-Disposition = %q", got)
	}
}

func TestArtifactMissing(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/artifacts/never-made.html", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
