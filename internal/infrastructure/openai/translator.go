package openai

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/macrolens/recipesync/internal/domain"
)

// TextGenerator is the plain-text capability the translator needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
}

// Translator implements domain.Translator on a text generator.
type Translator struct {
	gen TextGenerator
}

func NewTranslator(gen TextGenerator) *Translator {
	return &Translator{gen: gen}
}

func (t *Translator) Translate(ctx context.Context, text string, targetLocale string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	tag, err := language.Parse(targetLocale)
	if err != nil {
		return "", fmt.Errorf("%w: locale %q: %v", domain.ErrInvalidRequest, targetLocale, err)
	}

	system := fmt.Sprintf(
		"Translate the user's text into %s (%s). Keep formatting, numbers and units. Reply with the translation only.",
		display.English.Tags().Name(tag), tag.String(),
	)
	return t.gen.GenerateText(ctx, system, text)
}
