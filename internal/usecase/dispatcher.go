package usecase

import (
	"context"
	"strconv"
	"strings"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
)

// LocaleAll marks a write that targets every locale at once.
const LocaleAll = "all"

// Job delivery routes, relative to the public URL.
const (
	NutritionJobPath   = "/api/jobs/nutrition"
	TranslationJobPath = "/api/jobs/translation"
)

// ChangeEvent is the before/after snapshot of one committed content write.
type ChangeEvent struct {
	Entity domain.EntityType
	ID     uint
	Slug   string
	Prev   domain.Status
	Next   domain.Status
	Op     domain.Operation
	Locale string
}

// Transition classifies the event.
func (e ChangeEvent) Transition() domain.Transition {
	return domain.Classify(e.Prev, e.Next, e.Op)
}

// RecipeNutritionCalculator recomputes a recipe's stored nutrition.
type RecipeNutritionCalculator interface {
	Calculate(ctx context.Context, recipeID uint, t domain.Transition) (CalculationOutcome, error)
}

// Dispatcher turns committed content writes into background work. It never fails
// the write: every error is logged and dropped.
type Dispatcher struct {
	publisher     domain.JobPublisher
	recipes       RecipeNutritionCalculator
	publicURL     string
	defaultLocale string
	log           *logger.Logger
}

func NewDispatcher(publisher domain.JobPublisher, recipes RecipeNutritionCalculator, publicURL, defaultLocale string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publisher:     publisher,
		recipes:       recipes,
		publicURL:     strings.TrimRight(publicURL, "/"),
		defaultLocale: defaultLocale,
		log:           log.With("service", "Dispatcher"),
	}
}

// IsCanonicalLocale reports whether a write in locale targets the canonical view.
func IsCanonicalLocale(locale, defaultLocale string) bool {
	return locale == "" || locale == LocaleAll || strings.EqualFold(locale, defaultLocale)
}

// Dispatch fires the jobs ev qualifies for:
//   - fresh publish: translation for any entity, nutrition for ingredients,
//     in-process nutrition for recipes;
//   - republish: recipe nutrition only;
//   - anything else: nothing.
func (d *Dispatcher) Dispatch(ctx context.Context, ev ChangeEvent) {
	if !IsCanonicalLocale(ev.Locale, d.defaultLocale) {
		d.log.Debug("ignoring non-canonical locale write", "entity", string(ev.Entity), "id", ev.ID, "locale", ev.Locale)
		return
	}

	t := ev.Transition()
	switch t {
	case domain.TransitionFreshPublish:
		d.publish(ctx, TranslationJobPath, ev)
		switch ev.Entity {
		case domain.EntityIngredient:
			d.publish(ctx, NutritionJobPath, ev)
		case domain.EntityRecipe:
			d.calculate(ctx, ev, t)
		}
	case domain.TransitionRepublish:
		if ev.Entity == domain.EntityRecipe {
			d.calculate(ctx, ev, t)
		}
	}
}

func (d *Dispatcher) publish(ctx context.Context, path string, ev ChangeEvent) {
	msg := domain.JobMessage{Type: ev.Entity}
	id := domain.EntityID(strconv.FormatUint(uint64(ev.ID), 10))
	if ev.Entity == domain.EntityRecipe {
		msg.RecipeID = id
	} else {
		msg.IngredientID = id
	}

	messageID, err := d.publisher.Publish(ctx, d.publicURL+path, msg)
	if err != nil {
		d.log.Error("job publish failed", "path", path, "entity", string(ev.Entity), "id", ev.ID, "kind", domain.ErrorKind(err), "error", err)
		return
	}
	d.log.Info("job published", "path", path, "entity", string(ev.Entity), "id", ev.ID, "message_id", messageID)
}

func (d *Dispatcher) calculate(ctx context.Context, ev ChangeEvent, t domain.Transition) {
	if d.recipes == nil {
		return
	}
	outcome, err := d.recipes.Calculate(ctx, ev.ID, t)
	if err != nil {
		d.log.Error("recipe nutrition failed", "recipe_id", ev.ID, "transition", t.String(), "kind", domain.ErrorKind(err), "error", err)
		return
	}
	d.log.Debug("recipe nutrition", "recipe_id", ev.ID, "outcome", string(outcome))
}
