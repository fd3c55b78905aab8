package script

import (
	"encoding/json"
	"strings"

	"slidecraft/internal/deck"
)

// Outcome tags how a model response mapped onto the requested script.
type Outcome int

const (
	// OutcomeComplete means the response yielded at least the requested
	// number of entries (extras are truncated).
	OutcomeComplete Outcome = iota
	// OutcomeShortfall means the response parsed but yielded fewer
	// entries than requested.
	OutcomeShortfall
	// OutcomeUnparseable means no entries could be recovered at all.
	OutcomeUnparseable
)

// ParseResult is the shaped output of one model response.
type ParseResult struct {
	Entries   []deck.ScriptEntry
	Outcome   Outcome
	Requested int
}

type scriptDocument struct {
	Slides []scriptSlide `json:"slides"`
}

type scriptSlide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Notes   string   `json:"notes"`
}

// Parse shapes a model response into at most slideCount script entries.
// It accepts the documented {"slides": [...]} object, a bare array, and
// responses wrapped in markdown fences. Extra entries are dropped;
// missing entries are reported as a shortfall, not an error.
func Parse(content string, slideCount int) ParseResult {
	slides := extractSlides(stripFences(content))

	entries := make([]deck.ScriptEntry, 0, len(slides))
	for _, s := range slides {
		entry := deck.ScriptEntry{
			Title:   strings.TrimSpace(s.Title),
			Bullets: cleanBullets(s.Bullets),
			Notes:   strings.TrimSpace(s.Notes),
		}
		if entry.Title == "" && len(entry.Bullets) == 0 {
			continue
		}
		entries = append(entries, entry)
	}

	result := ParseResult{Entries: entries, Requested: slideCount}
	switch {
	case len(entries) == 0:
		result.Outcome = OutcomeUnparseable
	case len(entries) < slideCount:
		result.Outcome = OutcomeShortfall
	default:
		result.Entries = entries[:slideCount]
		result.Outcome = OutcomeComplete
	}
	return result
}

func extractSlides(content string) []scriptSlide {
	var doc scriptDocument
	if err := json.Unmarshal([]byte(content), &doc); err == nil && len(doc.Slides) > 0 {
		return doc.Slides
	}

	var bare []scriptSlide
	if err := json.Unmarshal([]byte(content), &bare); err == nil {
		return bare
	}

	return nil
}

func stripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func cleanBullets(bullets []string) []string {
	result := make([]string, 0, len(bullets))
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		result = append(result, b)
	}
	return result
}
