package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macrolens/recipesync/config"
	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/infrastructure/qstash"
	"github.com/macrolens/recipesync/internal/platform/logger"
	"github.com/macrolens/recipesync/internal/usecase"
)

const testSigningKey = "sig_test_current"

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeContent serves one ingredient (id 1) and one recipe (id 2).
type fakeContent struct {
	lastLocale string
	created    *domain.Ingredient
	deleted    []uint
}

func (f *fakeContent) CreateIngredient(ctx context.Context, in *domain.Ingredient, locale string) (*domain.Ingredient, error) {
	f.lastLocale = locale
	if locale == "de" {
		return nil, fmt.Errorf("%w: default locale only", domain.ErrInvalidRequest)
	}
	out := *in
	out.ID = 7
	out.Slug = "leek"
	f.created = &out
	return &out, nil
}

func (f *fakeContent) UpdateIngredient(ctx context.Context, id uint, in *domain.Ingredient, locale string) (*domain.Ingredient, error) {
	f.lastLocale = locale
	if id != 1 {
		return nil, domain.ErrNotFound
	}
	out := *in
	out.ID = id
	return &out, nil
}

func (f *fakeContent) DeleteIngredient(ctx context.Context, id uint) error {
	if id != 1 {
		return domain.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeContent) GetIngredient(ctx context.Context, id uint, locale string) (*domain.Ingredient, error) {
	f.lastLocale = locale
	if id != 1 {
		return nil, fmt.Errorf("%w: ingredient %d", domain.ErrNotFound, id)
	}
	name := "Leek"
	if locale == "de" {
		name = "Lauch"
	}
	return &domain.Ingredient{ID: 1, Slug: "leek", Name: name, Status: domain.StatusPublished}, nil
}

func (f *fakeContent) GetIngredientNutrition(ctx context.Context, id uint) (*domain.IngredientNutrition, error) {
	if id != 1 {
		return nil, domain.ErrNotFound
	}
	return &domain.IngredientNutrition{ID: 3, IngredientID: 1, IngredientSlug: "leek", Provenance: domain.ProvenanceStructured,
		SourceID: "169246", Nutrients: domain.NutrientRecord{domain.FieldCalories: 61}}, nil
}

func (f *fakeContent) CreateRecipe(ctx context.Context, in *domain.Recipe, locale string) (*domain.Recipe, error) {
	out := *in
	out.ID = 9
	return &out, nil
}

func (f *fakeContent) UpdateRecipe(ctx context.Context, id uint, in *domain.Recipe, locale string) (*domain.Recipe, error) {
	out := *in
	out.ID = id
	return &out, nil
}

func (f *fakeContent) DeleteRecipe(ctx context.Context, id uint) error { return nil }

func (f *fakeContent) GetRecipe(ctx context.Context, id uint, locale string) (*domain.Recipe, error) {
	if id != 2 {
		return nil, domain.ErrNotFound
	}
	return &domain.Recipe{ID: 2, Slug: "leek-soup", Title: "Leek soup", Status: domain.StatusPublished}, nil
}

func (f *fakeContent) GetRecipeNutrition(ctx context.Context, id uint) (*domain.RecipeNutrition, error) {
	if id != 2 {
		return nil, domain.ErrNotFound
	}
	return &domain.RecipeNutrition{RecipeID: 2, RecipeSlug: "leek-soup", Nutrients: domain.NutrientRecord{domain.FieldCalories: 48.5}}, nil
}

// fakeJobs fails with err when set, otherwise reports the entity it was given.
type fakeJobs struct {
	err   error
	calls int
}

func (f *fakeJobs) handle(msg domain.JobMessage, outcome string) (*usecase.JobResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	entity, rawID, err := msg.Entity()
	if err != nil {
		return nil, err
	}
	id, err := rawID.Uint()
	if err != nil {
		return nil, err
	}
	return &usecase.JobResult{Entity: entity, ID: id, Outcome: outcome}, nil
}

func (f *fakeJobs) HandleNutrition(ctx context.Context, msg domain.JobMessage) (*usecase.JobResult, error) {
	return f.handle(msg, "created")
}

func (f *fakeJobs) HandleTranslation(ctx context.Context, msg domain.JobMessage) (*usecase.JobResult, error) {
	return f.handle(msg, "translated 2 fields")
}

// setupTestRouter creates a test router with default configuration
func setupTestRouter(content *fakeContent, jobs *fakeJobs) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
	}
	handler := NewHandler(content, jobs, "test", logger.NewNop())
	return SetupRouter(cfg, handler, qstash.NewVerifier(testSigningKey, ""), logger.NewNop())
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func deliverJob(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(qstash.SignatureHeader, qstash.Sign(testSigningKey, []byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body.Error
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(&fakeContent{}, &fakeJobs{})

	w := doJSON(router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response["status"])
	assert.Equal(t, "recipesync", response["service"])
	assert.Equal(t, "test", response["version"])

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		w := doJSON(router, method, "/health", "")
		assert.Equal(t, http.StatusNotFound, w.Code, method)
	}
}

func TestIngredientRoutes(t *testing.T) {
	content := &fakeContent{}
	router := setupTestRouter(content, &fakeJobs{})

	t.Run("create", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/ingredients?locale=en", `{"name":"Leek","status":"published"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "en", content.lastLocale)
		assert.Equal(t, domain.StatusPublished, content.created.Status)
	})

	t.Run("create in other locale is rejected", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/ingredients?locale=de", `{"name":"Lauch"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "InvalidRequest", decodeError(t, w).Kind)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/ingredients", `{invalid}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("get localized", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/ingredients/1?locale=de", "")
		require.Equal(t, http.StatusOK, w.Code)
		var ing domain.Ingredient
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ing))
		assert.Equal(t, "Lauch", ing.Name)
	})

	t.Run("get missing", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/ingredients/5", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NotFoundError", decodeError(t, w).Kind)
	})

	t.Run("bad id", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/ingredients/abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/v1/ingredients/1", `{"name":"Leek","status":"draft"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(router, http.MethodDelete, "/api/v1/ingredients/1", "")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, []uint{1}, content.deleted)
	})

	t.Run("nutrition", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/ingredients/1/nutrition", "")
		require.Equal(t, http.StatusOK, w.Code)
		var n domain.IngredientNutrition
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
		assert.Equal(t, domain.ProvenanceStructured, n.Provenance)
		assert.Equal(t, 61.0, n.Nutrients[domain.FieldCalories])
	})
}

func TestRecipeRoutes(t *testing.T) {
	router := setupTestRouter(&fakeContent{}, &fakeJobs{})

	w := doJSON(router, http.MethodPost, "/api/v1/recipes", `{"title":"Leek soup","ingredients":[{"amount":"2","unit":"piece_medium","ingredientId":1}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var r domain.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
	require.Len(t, r.Lines, 1)
	assert.Equal(t, domain.UnitPieceMedium, r.Lines[0].Unit)

	w = doJSON(router, http.MethodGet, "/api/v1/recipes/2/nutrition", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"calories":48.5`)

	w = doJSON(router, http.MethodGet, "/api/v1/recipes/3/nutrition", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/v1/recipes/2", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestJobRoutes(t *testing.T) {
	t.Run("nutrition job succeeds", func(t *testing.T) {
		router := setupTestRouter(&fakeContent{}, &fakeJobs{})

		w := deliverJob(router, usecase.NutritionJobPath, `{"ingredientId":12}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var res usecase.JobResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, domain.EntityIngredient, res.Entity)
		assert.Equal(t, uint(12), res.ID)
	})

	t.Run("translation job succeeds", func(t *testing.T) {
		router := setupTestRouter(&fakeContent{}, &fakeJobs{})

		w := deliverJob(router, usecase.TranslationJobPath, `{"recipeId":"4","type":"recipe"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "translated 2 fields")
	})

	t.Run("unsigned delivery is rejected before the consumer runs", func(t *testing.T) {
		jobs := &fakeJobs{}
		router := setupTestRouter(&fakeContent{}, jobs)

		w := doJSON(router, http.MethodPost, usecase.NutritionJobPath, `{"ingredientId":12}`)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Zero(t, jobs.calls)
	})

	statusCases := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"missing entity id", `{}`, nil, http.StatusBadRequest, "InvalidRequest"},
		{"malformed JSON", `{"ingredientId":`, nil, http.StatusBadRequest, "InvalidRequest"},
		{"entity not found", `{"ingredientId":12}`, fmt.Errorf("%w: ingredient 12", domain.ErrNotFound), http.StatusNotFound, "NotFoundError"},
		{"incomplete data", `{"ingredientId":12}`, fmt.Errorf("%w: apple", domain.ErrIncompleteData), http.StatusInternalServerError, "IncompleteDataError"},
		{"missing credentials", `{"ingredientId":12}`, fmt.Errorf("%w: usda key", domain.ErrConfiguration), http.StatusInternalServerError, "ConfigurationError"},
	}
	for _, tt := range statusCases {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter(&fakeContent{}, &fakeJobs{err: tt.err})

			w := deliverJob(router, usecase.NutritionJobPath, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantKind, decodeError(t, w).Kind)
		})
	}
}

func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(&fakeContent{}, &fakeJobs{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want http://localhost:3000", got)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	router := setupTestRouter(&fakeContent{}, &fakeJobs{})
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := doJSON(router, http.MethodGet, "/panic", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAPIVersioning(t *testing.T) {
	router := setupTestRouter(&fakeContent{}, &fakeJobs{})

	w := doJSON(router, http.MethodGet, "/api/ingredients/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
