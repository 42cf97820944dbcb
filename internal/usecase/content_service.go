package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

var nonSlugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify folds accents, lowercases and joins alphanumeric runs with dashes.
func slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	return strings.Trim(nonSlugPattern.ReplaceAllString(strings.ToLower(folded), "-"), "-")
}

// ChangeHook observes committed content writes.
type ChangeHook interface {
	Handle(ctx context.Context, ev ChangeEvent)
}

// ChangeHookFunc adapts a function to ChangeHook.
type ChangeHookFunc func(ctx context.Context, ev ChangeEvent)

func (f ChangeHookFunc) Handle(ctx context.Context, ev ChangeEvent) { f(ctx, ev) }

// ContentService is the write path for ingredients and recipes. Hooks run after the
// store call returns, so they always read committed data, and they cannot fail a write.
type ContentService struct {
	ingredients         domain.IngredientRepository
	recipes             domain.RecipeRepository
	translations        domain.TranslationRepository
	ingredientNutrition domain.IngredientNutritionRepository
	recipeNutrition     domain.RecipeNutritionRepository
	hooks               []ChangeHook
	defaultLocale       string
	log                 *logger.Logger
}

// ContentStores groups the repositories the content service reads and writes.
type ContentStores struct {
	Ingredients         domain.IngredientRepository
	Recipes             domain.RecipeRepository
	Translations        domain.TranslationRepository
	IngredientNutrition domain.IngredientNutritionRepository
	RecipeNutrition     domain.RecipeNutritionRepository
}

func NewContentService(stores ContentStores, defaultLocale string, log *logger.Logger, hooks ...ChangeHook) *ContentService {
	return &ContentService{
		ingredients:         stores.Ingredients,
		recipes:             stores.Recipes,
		translations:        stores.Translations,
		ingredientNutrition: stores.IngredientNutrition,
		recipeNutrition:     stores.RecipeNutrition,
		hooks:               hooks,
		defaultLocale:       defaultLocale,
		log:                 log.With("service", "ContentService"),
	}
}

func (s *ContentService) canonical(locale string) bool {
	return IsCanonicalLocale(locale, s.defaultLocale)
}

func (s *ContentService) afterCommit(ctx context.Context, ev ChangeEvent) {
	ctx = context.WithoutCancel(ctx)
	s.log.Debug("content committed", "entity", string(ev.Entity), "id", ev.ID, "op", string(ev.Op), "transition", ev.Transition().String())
	for _, h := range s.hooks {
		h.Handle(ctx, ev)
	}
}

func validStatus(st domain.Status) bool {
	return st == domain.StatusDraft || st == domain.StatusPublished
}

func (s *ContentService) CreateIngredient(ctx context.Context, in *domain.Ingredient, locale string) (*domain.Ingredient, error) {
	if !s.canonical(locale) {
		return nil, fmt.Errorf("%w: ingredients are created in the default locale", domain.ErrInvalidRequest)
	}
	ing := *in
	ing.ID = 0
	if err := prepareEntity(&ing.Status, &ing.Slug, ing.Name); err != nil {
		return nil, err
	}

	if err := s.ingredients.Create(ctx, &ing); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, ChangeEvent{
		Entity: domain.EntityIngredient, ID: ing.ID, Slug: ing.Slug,
		Next: ing.Status, Op: domain.OpCreate, Locale: locale,
	})
	return &ing, nil
}

// UpdateIngredient rewrites the canonical ingredient, or only its translated fields
// when locale is not the default.
func (s *ContentService) UpdateIngredient(ctx context.Context, id uint, in *domain.Ingredient, locale string) (*domain.Ingredient, error) {
	prev, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canonical(locale) {
		if err := s.setTranslations(ctx, domain.EntityIngredient, id, locale, map[string]string{"name": in.Name, "description": in.Description}); err != nil {
			return nil, err
		}
		return s.GetIngredient(ctx, id, locale)
	}

	ing := *in
	ing.ID = id
	if ing.Slug == "" {
		ing.Slug = prev.Slug
	}
	if ing.Status == "" {
		ing.Status = prev.Status
	}
	if err := prepareEntity(&ing.Status, &ing.Slug, ing.Name); err != nil {
		return nil, err
	}

	if err := s.ingredients.Update(ctx, &ing); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, ChangeEvent{
		Entity: domain.EntityIngredient, ID: id, Slug: ing.Slug,
		Prev: prev.Status, Next: ing.Status, Op: domain.OpUpdate, Locale: locale,
	})
	return &ing, nil
}

func (s *ContentService) DeleteIngredient(ctx context.Context, id uint) error {
	prev, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.ingredients.Delete(ctx, id); err != nil {
		return err
	}
	s.afterCommit(ctx, ChangeEvent{
		Entity: domain.EntityIngredient, ID: id, Slug: prev.Slug,
		Prev: prev.Status, Op: domain.OpDelete, Locale: LocaleAll,
	})
	return nil
}

// GetIngredient returns the ingredient with translated fields overlaid for locale.
func (s *ContentService) GetIngredient(ctx context.Context, id uint, locale string) (*domain.Ingredient, error) {
	ing, err := s.ingredients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.canonical(locale) {
		return ing, nil
	}
	tr, err := s.translations.Get(ctx, domain.EntityIngredient, id, locale)
	if err != nil {
		return nil, err
	}
	overlay(&ing.Name, tr["name"])
	overlay(&ing.Description, tr["description"])
	return ing, nil
}

func (s *ContentService) CreateRecipe(ctx context.Context, in *domain.Recipe, locale string) (*domain.Recipe, error) {
	if !s.canonical(locale) {
		return nil, fmt.Errorf("%w: recipes are created in the default locale", domain.ErrInvalidRequest)
	}
	r := *in
	r.ID = 0
	if err := prepareEntity(&r.Status, &r.Slug, r.Title); err != nil {
		return nil, err
	}
	if err := validateLines(r.Lines); err != nil {
		return nil, err
	}

	if err := s.recipes.Create(ctx, &r); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, ChangeEvent{
		Entity: domain.EntityRecipe, ID: r.ID, Slug: r.Slug,
		Next: r.Status, Op: domain.OpCreate, Locale: locale,
	})
	return &r, nil
}

// UpdateRecipe rewrites the canonical recipe and its lines, or only its translated
// fields when locale is not the default.
func (s *ContentService) UpdateRecipe(ctx context.Context, id uint, in *domain.Recipe, locale string) (*domain.Recipe, error) {
	prev, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.canonical(locale) {
		if err := s.setTranslations(ctx, domain.EntityRecipe, id, locale, map[string]string{"title": in.Title, "description": in.Description}); err != nil {
			return nil, err
		}
		return s.GetRecipe(ctx, id, locale)
	}

	r := *in
	r.ID = id
	if r.Slug == "" {
		r.Slug = prev.Slug
	}
	if r.Status == "" {
		r.Status = prev.Status
	}
	if r.Lines == nil {
		r.Lines = prev.Lines
	}
	if err := prepareEntity(&r.Status, &r.Slug, r.Title); err != nil {
		return nil, err
	}
	if err := validateLines(r.Lines); err != nil {
		return nil, err
	}

	if err := s.recipes.Update(ctx, &r); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, ChangeEvent{
		Entity: domain.EntityRecipe, ID: id, Slug: r.Slug,
		Prev: prev.Status, Next: r.Status, Op: domain.OpUpdate, Locale: locale,
	})
	return &r, nil
}

func (s *ContentService) DeleteRecipe(ctx context.Context, id uint) error {
	prev, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		return err
	}
	s.afterCommit(ctx, ChangeEvent{
		Entity: domain.EntityRecipe, ID: id, Slug: prev.Slug,
		Prev: prev.Status, Op: domain.OpDelete, Locale: LocaleAll,
	})
	return nil
}

// GetRecipe returns the recipe with translated fields overlaid for locale.
func (s *ContentService) GetRecipe(ctx context.Context, id uint, locale string) (*domain.Recipe, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.canonical(locale) {
		return r, nil
	}
	tr, err := s.translations.Get(ctx, domain.EntityRecipe, id, locale)
	if err != nil {
		return nil, err
	}
	overlay(&r.Title, tr["title"])
	overlay(&r.Description, tr["description"])
	return r, nil
}

func (s *ContentService) GetIngredientNutrition(ctx context.Context, id uint) (*domain.IngredientNutrition, error) {
	n, err := s.ingredientNutrition.FindByIngredientID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: nutrition for ingredient %d", domain.ErrNotFound, id)
	}
	return n, nil
}

func (s *ContentService) GetRecipeNutrition(ctx context.Context, id uint) (*domain.RecipeNutrition, error) {
	r, err := s.recipes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := s.recipeNutrition.FindBySlug(ctx, r.Slug)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: nutrition for recipe %d", domain.ErrNotFound, id)
	}
	return n, nil
}

func (s *ContentService) setTranslations(ctx context.Context, entity domain.EntityType, id uint, locale string, fields map[string]string) error {
	for field, value := range fields {
		if value == "" {
			continue
		}
		if err := s.translations.Set(ctx, entity, id, locale, field, value); err != nil {
			return err
		}
	}
	return nil
}

func overlay(dst *string, translated string) {
	if translated != "" {
		*dst = translated
	}
}

// prepareEntity defaults the status to draft and derives a missing slug from name.
func prepareEntity(status *domain.Status, slug *string, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	}
	if *status == "" {
		*status = domain.StatusDraft
	}
	if !validStatus(*status) {
		return fmt.Errorf("%w: status %q", domain.ErrInvalidRequest, *status)
	}
	if *slug == "" {
		*slug = slugify(name)
	} else {
		*slug = slugify(*slug)
	}
	if *slug == "" {
		return fmt.Errorf("%w: cannot derive slug from %q", domain.ErrInvalidRequest, name)
	}
	return nil
}

func validateLines(lines []domain.RecipeIngredientLine) error {
	for i, l := range lines {
		if l.IngredientID == 0 {
			return fmt.Errorf("%w: line %d has no ingredient", domain.ErrInvalidRequest, i)
		}
	}
	return nil
}
