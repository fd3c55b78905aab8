// Package script turns a topic into an ordered per-slide script via the
// text-generation service, shaping whatever the model returns into
// exactly the requested number of entries.
package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"slidecraft/internal/deck"
	"slidecraft/internal/llm"
)

var errUnparseable = errors.New("script response not parseable")

type Options struct {
	Timeout    time.Duration
	MaxRetries int
}

type Generator struct {
	llm        llm.Client
	timeout    time.Duration
	maxRetries int
}

func NewGenerator(client llm.Client, opts Options) *Generator {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}
	return &Generator{
		llm:        client,
		timeout:    opts.Timeout,
		maxRetries: opts.MaxRetries,
	}
}

// Generate produces exactly slideCount entries for the topic. Transient
// service failures are retried with exponential backoff; auth failures
// are not. A response with too few entries is padded with placeholder
// entries and reported as a warning, never as an error. Only retry
// exhaustion of the call itself yields a GenerationError.
func (g *Generator) Generate(ctx context.Context, topic string, slideCount int, tone string) ([]deck.ScriptEntry, []deck.Warning, error) {
	if topic == "" {
		return nil, nil, fmt.Errorf("%w: topic must not be empty", deck.ErrInvalidRequest)
	}
	if slideCount < 1 || slideCount > deck.MaxSlideCount {
		return nil, nil, fmt.Errorf("%w: slide_count %d outside [1, %d]", deck.ErrInvalidRequest, slideCount, deck.MaxSlideCount)
	}
	if tone == "" {
		tone = "neutral"
	}

	var parsed ParseResult
	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		raw, err := g.llm.GenerateDeckScript(callCtx, topic, slideCount, tone)
		if err != nil {
			if isPermanent(err) {
				return backoff.Permanent(err)
			}
			slog.Warn("Script generation attempt failed", "topic", topic, "error", err)
			return err
		}

		result := Parse(raw, slideCount)
		if result.Outcome == OutcomeUnparseable {
			slog.Warn("Script response not parseable, retrying", "topic", topic)
			return errUnparseable
		}
		parsed = result
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(g.maxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, errUnparseable) {
			// The service answered; only the content was unusable.
			// Degrade to placeholder entries instead of failing the run.
			entries := padEntries(nil, slideCount, topic)
			warning := deck.Warning{Message: fmt.Sprintf(
				"script response was not parseable; generated %d placeholder slides", slideCount)}
			return entries, []deck.Warning{warning}, nil
		}
		return nil, nil, deck.NewGenerationError(fmt.Errorf("script generation for %q: %w", topic, err))
	}

	var warnings []deck.Warning
	entries := parsed.Entries
	if parsed.Outcome == OutcomeShortfall {
		warnings = append(warnings, deck.Warning{Message: fmt.Sprintf(
			"script returned %d of %d slides; padded with placeholders", len(entries), slideCount)})
		entries = padEntries(entries, slideCount, topic)
	}

	return entries, warnings, nil
}

// padEntries extends a short script to slideCount with minimal entries
// whose titles derive from the topic and slide index.
func padEntries(entries []deck.ScriptEntry, slideCount int, topic string) []deck.ScriptEntry {
	padded := make([]deck.ScriptEntry, 0, slideCount)
	padded = append(padded, entries...)
	for i := len(padded); i < slideCount; i++ {
		padded = append(padded, deck.ScriptEntry{
			Title: fmt.Sprintf("%s (%d)", topic, i+1),
		})
	}
	return padded
}

func isPermanent(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"401", "403", "unauthorized", "forbidden", "invalid api key", "invalid_api_key"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
