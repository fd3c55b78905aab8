// Package compose builds slide specifications under a fixed layout
// contract: text on the left, images on the right, stable proportions.
package compose

import (
	"fmt"
	"strings"

	"slidecraft/internal/deck"
)

const (
	// TextRegionPct and ImageRegionPct split the slide when at least
	// one image is present. With no images the text region takes the
	// full width.
	TextRegionPct  = 55
	ImageRegionPct = 45

	// BulletRuneBudget bounds a single bullet; longer bullets are
	// truncated with an ellipsis.
	BulletRuneBudget = 160
)

type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose produces the spec for one slide. index is zero-based; warnings
// carry one-based slide numbers. Compose never fails: malformed entries
// are repaired and reported.
func (c *Composer) Compose(index int, entry deck.ScriptEntry, images []deck.ImageAsset) (deck.SlideSpec, []deck.Warning) {
	var warnings []deck.Warning
	slideNum := index + 1

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = fmt.Sprintf("Slide %d", slideNum)
		warnings = append(warnings, deck.Warning{
			Slide:   slideNum,
			Message: "missing title replaced",
		})
	}

	bullets := make([]string, 0, len(entry.Bullets))
	for _, bullet := range entry.Bullets {
		bullet = strings.TrimSpace(bullet)
		if bullet == "" {
			continue
		}
		if truncated, ok := truncateBullet(bullet); ok {
			warnings = append(warnings, deck.Warning{
				Slide:   slideNum,
				Message: "bullet truncated to fit text region",
			})
			bullet = truncated
		}
		bullets = append(bullets, bullet)
	}

	if len(images) > deck.MaxImagesPerSlide {
		images = images[:deck.MaxImagesPerSlide]
	}

	layout := deck.RegionLayout{TextWidthPct: TextRegionPct, ImageWidthPct: ImageRegionPct}
	if len(images) == 0 {
		// Reclaim the image region for text.
		layout = deck.RegionLayout{TextWidthPct: 100, ImageWidthPct: 0}
	}

	spec := deck.SlideSpec{
		Entry: deck.ScriptEntry{
			Title:   title,
			Bullets: bullets,
			Notes:   strings.TrimSpace(entry.Notes),
		},
		Images: images,
		Layout: layout,
	}
	return spec, warnings
}

func truncateBullet(bullet string) (string, bool) {
	runes := []rune(bullet)
	if len(runes) <= BulletRuneBudget {
		return bullet, false
	}
	cut := strings.TrimRight(string(runes[:BulletRuneBudget-1]), " ")
	return cut + "…", true
}
