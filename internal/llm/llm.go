package llm

import (
	"context"
	"errors"
	"strings"

	"resume-coach/internal/shared/util"
)

// Generator abstracts text-generation providers.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ErrNotConfigured is returned by the placeholder generator.
var ErrNotConfigured = errors.New("text generation is not configured")

// PlaceholderGenerator stands in when no API key is set.
type PlaceholderGenerator struct{}

// Generate returns ErrNotConfigured.
func (PlaceholderGenerator) Generate(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

// TextOrError returns the generated text, or the error message in its place
// so that failures are shown to the user as ordinary output.
func TextOrError(ctx context.Context, gen Generator, prompt string) (string, error) {
	text, err := gen.Generate(ctx, prompt)
	if err != nil {
		return err.Error(), err
	}
	return text, nil
}

// HashPrompt returns a hex sha256 of the prompt for correlation in logs.
func HashPrompt(prompt string) string {
	return util.SHA256Hex([]byte(strings.TrimSpace(prompt)))
}
