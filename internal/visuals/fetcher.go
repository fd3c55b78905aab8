// Package visuals turns search queries into local, normalized image
// assets ready for slide composition.
package visuals

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"slidecraft/internal/deck"
	"slidecraft/internal/imagesearch"
)

const (
	// Region box a slide image is fitted into. Matches the 45% image
	// region of a 1920x1080 canvas with padding.
	regionWidth  = 800
	regionHeight = 600

	// minImageBytes rejects truncated or error-page downloads.
	minImageBytes = 1024

	jpegQuality = 85
)

// Searcher finds and downloads candidate photos. *imagesearch.Client
// satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]imagesearch.Photo, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

type Fetcher struct {
	searcher Searcher
	timeout  time.Duration
	logger   *slog.Logger
}

type Options struct {
	// Timeout bounds a single slide's search-and-download work.
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewFetcher(searcher Searcher, opts Options) *Fetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{searcher: searcher, timeout: timeout, logger: logger}
}

// Fetch returns up to count validated assets for the query, stored under
// dir. Search and download failures degrade to fewer (possibly zero)
// assets rather than failing the slide; only context cancellation is
// propagated as an error.
func (f *Fetcher) Fetch(ctx context.Context, dir, query string, count int) ([]deck.ImageAsset, error) {
	if count <= 0 {
		return nil, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	// Over-fetch so broken downloads and cross-slide duplicates still
	// leave enough usable candidates.
	photos, err := f.searcher.Search(fetchCtx, query, count+deck.MaxImagesPerSlide)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.Warn("image search failed", "query", query, "error", err)
		return nil, nil
	}

	var assets []deck.ImageAsset
	for _, photo := range photos {
		if len(assets) >= count+deck.MaxImagesPerSlide {
			break
		}
		asset, err := f.fetchOne(fetchCtx, dir, photo)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("image rejected", "query", query, "photo", photo.ID, "error", err)
			continue
		}
		assets = append(assets, asset)
	}

	return assets, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, dir string, photo imagesearch.Photo) (deck.ImageAsset, error) {
	data, err := f.searcher.Download(ctx, photo.URL)
	if err != nil {
		return deck.ImageAsset{}, err
	}
	if len(data) < minImageBytes {
		return deck.ImageAsset{}, fmt.Errorf("image too small: %d bytes", len(data))
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return deck.ImageAsset{}, fmt.Errorf("decode image: %w", err)
	}

	fitted := imaging.Fit(img, regionWidth, regionHeight, imaging.Lanczos)
	bounds := fitted.Bounds()

	path := filepath.Join(dir, photo.ID+".jpg")
	if err := imaging.Save(fitted, path, imaging.JPEGQuality(jpegQuality)); err != nil {
		return deck.ImageAsset{}, fmt.Errorf("save image: %w", err)
	}

	return deck.ImageAsset{
		SourceURL:   photo.URL,
		LocalPath:   path,
		Attribution: photo.Attribution(),
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
	}, nil
}

// EnsureDir creates the per-run image directory.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	return nil
}
