package usecase

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// TranslationService copies an entity's localizable fields from the default locale
// into every target locale.
type TranslationService struct {
	ingredients  domain.IngredientRepository
	recipes      domain.RecipeRepository
	translations domain.TranslationRepository
	translator   domain.Translator
	targets      []string
	log          *logger.Logger
}

// NewTranslationService validates targets as BCP 47 tags.
func NewTranslationService(
	ingredients domain.IngredientRepository,
	recipes domain.RecipeRepository,
	translations domain.TranslationRepository,
	translator domain.Translator,
	targets []string,
	log *logger.Logger,
) (*TranslationService, error) {
	canonical := make([]string, 0, len(targets))
	for _, t := range targets {
		tag, err := language.Parse(t)
		if err != nil {
			return nil, fmt.Errorf("target locale %q: %w", t, err)
		}
		canonical = append(canonical, tag.String())
	}
	return &TranslationService{
		ingredients:  ingredients,
		recipes:      recipes,
		translations: translations,
		translator:   translator,
		targets:      canonical,
		log:          log.With("service", "TranslationService"),
	}, nil
}

type localizedField struct {
	name  string
	value string
}

// TranslateEntity translates every non-empty localizable field into every target
// locale. Failures for one locale do not stop the others; all are returned joined.
func (s *TranslationService) TranslateEntity(ctx context.Context, entity domain.EntityType, id uint) (int, error) {
	fields, err := s.sourceFields(ctx, entity, id)
	if err != nil {
		return 0, err
	}

	var written int
	var errs []error
	for _, locale := range s.targets {
		for _, f := range fields {
			if f.value == "" {
				continue
			}
			translated, err := s.translator.Translate(ctx, f.value, locale)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %s: %w", locale, f.name, err))
				continue
			}
			if err := s.translations.Set(ctx, entity, id, locale, f.name, translated); err != nil {
				errs = append(errs, err)
				continue
			}
			written++
		}
	}

	s.log.Info("entity translated", "entity", string(entity), "id", id, "written", written, "failed", len(errs))
	return written, errors.Join(errs...)
}

func (s *TranslationService) sourceFields(ctx context.Context, entity domain.EntityType, id uint) ([]localizedField, error) {
	switch entity {
	case domain.EntityIngredient:
		ing, err := s.ingredients.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []localizedField{{"name", ing.Name}, {"description", ing.Description}}, nil
	case domain.EntityRecipe:
		r, err := s.recipes.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []localizedField{{"title", r.Title}, {"description", r.Description}}, nil
	}
	return nil, fmt.Errorf("%w: entity type %q", domain.ErrInvalidRequest, entity)
}
