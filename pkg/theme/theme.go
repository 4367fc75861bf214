package theme

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"vizarcade.dev/pkg/object"
)

var (
	ErrEmptyText   = errors.New("model returned no text")
	ErrInvalidJSON = errors.New("model returned invalid JSON")
)

// Generator is a text-generation backend: one prompt in, one completion out.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// StripCodeFences removes every ```json and ``` marker, wherever it appears,
// and trims the result.
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	return strings.TrimSpace(text)
}

// Parse turns a model completion into a compact JSON document. Any valid JSON
// value is accepted. The value is decoded and encoded again, so numbers come
// out in their shortest form and a repeated key keeps its first position with
// its last value.
func Parse(text string) (json.RawMessage, error) {
	clean := StripCodeFences(text)
	if clean == "" {
		return nil, ErrEmptyText
	}

	if !json.Valid([]byte(clean)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidJSON, truncate(clean, 200)) //nolint:mnd
	}

	value, err := decodeValue(json.NewDecoder(strings.NewReader(clean)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	encoded := new(bytes.Buffer)

	err = encodeValue(encoded, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	return encoded.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}

type Service struct {
	generator Generator
}

func NewService(generator Generator) *Service {
	return &Service{generator: generator}
}

// Generate asks the backend for a theme for song. Every failure is reported
// as a theme generation failure with the underlying cause attached.
func (s *Service) Generate(ctx context.Context, song Song) (json.RawMessage, error) {
	text, err := s.generator.Generate(ctx, BuildPrompt(song))
	if err != nil {
		return nil, object.NewErrorThemeGenerationFailed(fmt.Errorf("%s: %w", s.generator.Name(), err))
	}

	theme, err := Parse(text)
	if err != nil {
		return nil, object.NewErrorThemeGenerationFailed(err)
	}

	return theme, nil
}
