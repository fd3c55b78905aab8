// Package groq implements the llm.Client boundary on the Groq chat
// completion API, requesting JSON-mode responses.
package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"slidecraft/internal/llm"
	"slidecraft/pkg/prompts"
)

var _ llm.Client = (*Client)(nil)

type Client struct {
	client  *groq.Client
	model   groq.ChatModel
	prompts *prompts.Prompts
}

func NewClient(apiKey, model string, p *prompts.Prompts) (*Client, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client:  client,
		model:   groq.ChatModel(model),
		prompts: p,
	}, nil
}

func (c *Client) GenerateDeckScript(ctx context.Context, topic string, slideCount int, tone string) (string, error) {
	prompt, err := c.prompts.RenderDeck(prompts.DeckParams{
		Topic:      topic,
		SlideCount: slideCount,
		Tone:       tone,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	req := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: c.prompts.System.Script},
			{Role: groq.RoleUser, Content: prompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{Type: "json_object"},
	}

	resp, err := c.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response")
	}

	return content, nil
}
