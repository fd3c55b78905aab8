// Package llm defines the client boundary to the text-generation service.
package llm

import "context"

// Client produces raw deck-script content for a topic. Implementations
// return the service response verbatim; parsing and shaping happen in
// the script generator.
type Client interface {
	GenerateDeckScript(ctx context.Context, topic string, slideCount int, tone string) (string, error)
}
