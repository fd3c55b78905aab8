// Package prompts holds the prompt templates sent to the text-generation
// service. Defaults are embedded; a prompts.yaml next to the binary
// overrides them.
package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed prompts.yaml
var embeddedPrompts []byte

type Prompts struct {
	System SystemPrompts `yaml:"system"`
	Script ScriptPrompts `yaml:"script"`
}

type SystemPrompts struct {
	Script string `yaml:"script"`
}

type ScriptPrompts struct {
	Deck string `yaml:"deck"`
}

type DeckParams struct {
	Topic      string
	SlideCount int
	Tone       string
}

// Load returns the prompt set, preferring a prompts.yaml in the working
// directory and falling back to the embedded defaults.
func Load() (*Prompts, error) {
	if _, err := os.Stat(defaultPromptsPath); err == nil {
		return LoadFrom(defaultPromptsPath)
	}
	return parse(embeddedPrompts)
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse prompts file: %w", err)
	}
	return &p, nil
}

func (p *Prompts) RenderDeck(params DeckParams) (string, error) {
	return render(p.Script.Deck, params)
}

func render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}
