package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// JobType selects the consumer route for a job message.
type JobType string

const (
	JobNutrition   JobType = "nutrition"
	JobTranslation JobType = "translation"
)

// EntityType discriminates which entity a job refers to.
type EntityType string

const (
	EntityIngredient EntityType = "ingredient"
	EntityRecipe     EntityType = "recipe"
)

// EntityID accepts both JSON strings and numbers, since publishers send either.
type EntityID string

func (id *EntityID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EntityID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("entity id must be a string or number: %w", err)
	}
	*id = EntityID(n.String())
	return nil
}

// Uint parses the id as a store primary key.
func (id EntityID) Uint() (uint, error) {
	v, err := strconv.ParseUint(string(id), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("%w: entity id %q", ErrInvalidRequest, string(id))
	}
	return uint(v), nil
}

// JobMessage is the envelope published to the queue and delivered back to the consumer.
type JobMessage struct {
	IngredientID EntityID   `json:"ingredientId,omitempty"`
	RecipeID     EntityID   `json:"recipeId,omitempty"`
	Type         EntityType `json:"type,omitempty"`
}

// Entity infers which entity the message targets. A declared type wins when its id is set.
func (m JobMessage) Entity() (EntityType, EntityID, error) {
	switch m.Type {
	case EntityIngredient:
		if m.IngredientID != "" {
			return EntityIngredient, m.IngredientID, nil
		}
	case EntityRecipe:
		if m.RecipeID != "" {
			return EntityRecipe, m.RecipeID, nil
		}
	case "":
	default:
		return "", "", fmt.Errorf("%w: unknown type %q", ErrInvalidRequest, m.Type)
	}
	if m.IngredientID != "" {
		return EntityIngredient, m.IngredientID, nil
	}
	if m.RecipeID != "" {
		return EntityRecipe, m.RecipeID, nil
	}
	return "", "", fmt.Errorf("%w: missing entity id", ErrInvalidRequest)
}
