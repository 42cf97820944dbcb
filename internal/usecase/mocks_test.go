package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/macrolens/recipesync/internal/domain"
)

// MockIngredientRepository is an in-memory domain.IngredientRepository
type MockIngredientRepository struct {
	mu       sync.Mutex
	items    map[uint]*domain.Ingredient
	nextID   uint
	writeErr error
	updates  int
}

func NewMockIngredientRepository(items ...domain.Ingredient) *MockIngredientRepository {
	m := &MockIngredientRepository{items: make(map[uint]*domain.Ingredient), nextID: 1}
	for _, it := range items {
		m.items[it.ID] = &it
		if it.ID >= m.nextID {
			m.nextID = it.ID + 1
		}
	}
	return m
}

func (m *MockIngredientRepository) Create(ctx context.Context, ing *domain.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	ing.ID = m.nextID
	m.nextID++
	cp := *ing
	m.items[ing.ID] = &cp
	return nil
}

func (m *MockIngredientRepository) Update(ctx context.Context, ing *domain.Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.updates++
	cp := *ing
	m.items[ing.ID] = &cp
	return nil
}

func (m *MockIngredientRepository) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MockIngredientRepository) FindByID(ctx context.Context, id uint) (*domain.Ingredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: ingredient %d", domain.ErrNotFound, id)
	}
	cp := *it
	return &cp, nil
}

func (m *MockIngredientRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]*domain.Ingredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint]*domain.Ingredient)
	for _, id := range ids {
		if it, ok := m.items[id]; ok {
			cp := *it
			out[id] = &cp
		}
	}
	return out, nil
}

// MockRecipeRepository is an in-memory domain.RecipeRepository
type MockRecipeRepository struct {
	mu     sync.Mutex
	items  map[uint]*domain.Recipe
	nextID uint
}

func NewMockRecipeRepository(items ...domain.Recipe) *MockRecipeRepository {
	m := &MockRecipeRepository{items: make(map[uint]*domain.Recipe), nextID: 1}
	for _, it := range items {
		m.items[it.ID] = &it
		if it.ID >= m.nextID {
			m.nextID = it.ID + 1
		}
	}
	return m
}

func (m *MockRecipeRepository) Create(ctx context.Context, r *domain.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *MockRecipeRepository) Update(ctx context.Context, r *domain.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *MockRecipeRepository) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *MockRecipeRepository) FindByID(ctx context.Context, id uint) (*domain.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: recipe %d", domain.ErrNotFound, id)
	}
	cp := *it
	cp.Lines = append([]domain.RecipeIngredientLine(nil), it.Lines...)
	return &cp, nil
}

// MockTranslationRepository is an in-memory domain.TranslationRepository
type MockTranslationRepository struct {
	mu      sync.Mutex
	values  map[string]string
	setErr  error
	deleted []string
}

func NewMockTranslationRepository() *MockTranslationRepository {
	return &MockTranslationRepository{values: make(map[string]string)}
}

func translationKey(entity domain.EntityType, id uint, locale, field string) string {
	return fmt.Sprintf("%s/%d/%s/%s", entity, id, locale, field)
}

func (m *MockTranslationRepository) Set(ctx context.Context, entity domain.EntityType, id uint, locale, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[translationKey(entity, id, locale, field)] = value
	return nil
}

func (m *MockTranslationRepository) Get(ctx context.Context, entity domain.EntityType, id uint, locale string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string)
	prefix := fmt.Sprintf("%s/%d/%s/", entity, id, locale)
	for k, v := range m.values {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			out[k[len(prefix):]] = v
		}
	}
	return out, nil
}

func (m *MockTranslationRepository) DeleteEntity(ctx context.Context, entity domain.EntityType, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, fmt.Sprintf("%s/%d", entity, id))
	return nil
}

// MockIngredientNutritionRepository is an in-memory domain.IngredientNutritionRepository.
// orphans counts extra rows per slug that only DeleteBySlug sees.
type MockIngredientNutritionRepository struct {
	mu          sync.Mutex
	records     []*domain.IngredientNutrition
	orphans     map[string]int
	deleteCalls int
	deleteErr   error
	findErr     error
	creates     int
}

func NewMockIngredientNutritionRepository(records ...*domain.IngredientNutrition) *MockIngredientNutritionRepository {
	return &MockIngredientNutritionRepository{records: records, orphans: make(map[string]int)}
}

func (m *MockIngredientNutritionRepository) FindByIngredientID(ctx context.Context, id uint) (*domain.IngredientNutrition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.IngredientID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockIngredientNutritionRepository) FindBySlug(ctx context.Context, slug string) (*domain.IngredientNutrition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.records {
		if r.IngredientSlug == slug {
			return r, nil
		}
	}
	return nil, nil
}

func (m *MockIngredientNutritionRepository) FindBySlugs(ctx context.Context, slugs []string) (map[string]*domain.IngredientNutrition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]*domain.IngredientNutrition)
	for _, s := range slugs {
		for _, r := range m.records {
			if r.IngredientSlug == s {
				out[s] = r
				break
			}
		}
	}
	return out, nil
}

func (m *MockIngredientNutritionRepository) Create(ctx context.Context, n *domain.IngredientNutrition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	n.ID = uint(len(m.records) + 1)
	m.records = append(m.records, n)
	return nil
}

func (m *MockIngredientNutritionRepository) DeleteBySlug(ctx context.Context, slug string, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	var n int64
	kept := m.records[:0]
	for _, r := range m.records {
		if r.IngredientSlug == slug && int(n) < limit {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	if extra := min(m.orphans[slug], limit-int(n)); extra > 0 {
		m.orphans[slug] -= extra
		n += int64(extra)
	}
	return n, nil
}

// MockRecipeNutritionRepository is an in-memory domain.RecipeNutritionRepository
type MockRecipeNutritionRepository struct {
	mu          sync.Mutex
	records     map[string]*domain.RecipeNutrition
	upserts     int
	deleteCalls int
}

func NewMockRecipeNutritionRepository(records ...*domain.RecipeNutrition) *MockRecipeNutritionRepository {
	m := &MockRecipeNutritionRepository{records: make(map[string]*domain.RecipeNutrition)}
	for _, r := range records {
		m.records[r.RecipeSlug] = r
	}
	return m
}

func (m *MockRecipeNutritionRepository) FindBySlug(ctx context.Context, slug string) (*domain.RecipeNutrition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[slug], nil
}

func (m *MockRecipeNutritionRepository) Upsert(ctx context.Context, n *domain.RecipeNutrition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	m.records[n.RecipeSlug] = n
	return nil
}

func (m *MockRecipeNutritionRepository) DeleteBySlug(ctx context.Context, slug string, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if _, ok := m.records[slug]; ok {
		delete(m.records, slug)
		return 1, nil
	}
	return 0, nil
}

type publishedJob struct {
	url     string
	payload domain.JobMessage
}

// MockJobPublisher records every published job
type MockJobPublisher struct {
	mu   sync.Mutex
	jobs []publishedJob
	err  error
}

func (m *MockJobPublisher) Publish(ctx context.Context, url string, payload any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	msg, _ := payload.(domain.JobMessage)
	m.jobs = append(m.jobs, publishedJob{url: url, payload: msg})
	return fmt.Sprintf("msg-%d", len(m.jobs)), nil
}

func (m *MockJobPublisher) urls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j.url)
	}
	return out
}

type calculation struct {
	recipeID   uint
	transition domain.Transition
}

// MockRecipeCalculator records Calculate calls
type MockRecipeCalculator struct {
	calls   []calculation
	outcome CalculationOutcome
	err     error
}

func (m *MockRecipeCalculator) Calculate(ctx context.Context, recipeID uint, t domain.Transition) (CalculationOutcome, error) {
	m.calls = append(m.calls, calculation{recipeID: recipeID, transition: t})
	if m.err != nil {
		return "", m.err
	}
	if m.outcome == "" {
		return OutcomeCalculated, nil
	}
	return m.outcome, nil
}

// MockProvider returns a fixed result or error
type MockProvider struct {
	name   string
	result *ProviderResult
	err    error
	calls  int
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Lookup(ctx context.Context, ingredientName string) (*ProviderResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// MockResolver returns a fixed resolution
type MockResolver struct {
	result *ProviderResult
	err    error
	names  []string
}

func (m *MockResolver) Resolve(ctx context.Context, ingredientName string) (*ProviderResult, error) {
	m.names = append(m.names, ingredientName)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

// MockUSDAClient is a mock implementation of domain.USDAClient
type MockUSDAClient struct {
	searchResult *domain.USDASearchResponse
	searchError  error
	foodResult   *domain.USDAFood
	foodError    error
	searches     []string
}

func (m *MockUSDAClient) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	m.searches = append(m.searches, query)
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockUSDAClient) GetFoodDetails(ctx context.Context, fdcID int) (*domain.USDAFood, error) {
	if m.foodError != nil {
		return nil, m.foodError
	}
	return m.foodResult, nil
}

// MockCacheRepository is a map-backed domain.CacheRepository
type MockCacheRepository struct {
	data     map[string][]byte
	getError error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string][]byte)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

// MockTranslator prefixes text with the locale
type MockTranslator struct {
	failLocale string
	calls      int
}

func (m *MockTranslator) Translate(ctx context.Context, text, locale string) (string, error) {
	m.calls++
	if locale == m.failLocale {
		return "", fmt.Errorf("%w: translate", domain.ErrUpstreamUnavailable)
	}
	return "[" + locale + "] " + text, nil
}

// MockPieceWeights returns fixed weights per slug
type MockPieceWeights struct {
	weights map[string]float64
	err     error
}

func (m *MockPieceWeights) PieceWeight(ctx context.Context, slug string, field domain.NutrientField) (float64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.weights[slug+"/"+string(field)], nil
}

func completeRecord(kcal, protein, fat, carbs float64) domain.NutrientRecord {
	return domain.NutrientRecord{
		domain.FieldCalories:      kcal,
		domain.FieldProtein:       protein,
		domain.FieldFat:           fat,
		domain.FieldCarbohydrates: carbs,
	}
}
