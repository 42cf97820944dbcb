package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/macrolens/recipesync/config"
	httpDelivery "github.com/macrolens/recipesync/internal/delivery/http"
	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/infrastructure/cache"
	"github.com/macrolens/recipesync/internal/infrastructure/openai"
	"github.com/macrolens/recipesync/internal/infrastructure/qstash"
	"github.com/macrolens/recipesync/internal/infrastructure/store"
	"github.com/macrolens/recipesync/internal/infrastructure/usda"
	"github.com/macrolens/recipesync/internal/platform/logger"
	"github.com/macrolens/recipesync/internal/usecase"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Server.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.Info("starting recipesync",
		"version", version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"cache", cfg.Cache.Type,
		"default_locale", cfg.Locale.Default,
		"targets", cfg.Locale.Targets,
	)

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	ingredients := store.NewIngredientRepo(db, log)
	recipes := store.NewRecipeRepo(db, log)
	translations := store.NewTranslationRepo(db, log)
	ingredientNutrition := store.NewIngredientNutritionRepo(db, log)
	recipeNutrition := store.NewRecipeNutritionRepo(db, log)

	lookupCache, err := newCache(ctx, cfg, log)
	if err != nil {
		return err
	}

	usdaClient := usda.NewClient(usda.ClientConfig{
		APIKey:          cfg.USDA.APIKey,
		BaseURL:         cfg.USDA.BaseURL,
		PageSize:        cfg.USDA.PageSize,
		RequestsPerHour: cfg.RateLimit.USDA,
	}, log)
	if cfg.Server.Environment == "development" {
		usdaClient.SetDebug(true)
	}
	if cfg.USDA.APIKey == "" {
		log.Warn("USDA API key not configured, nutrition jobs will fail with a configuration error")
	}

	openaiClient := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
		Timeout: cfg.OpenAI.Timeout,
	}, log)
	if cfg.OpenAI.APIKey == "" {
		log.Warn("OpenAI API key not configured, generative fallback and translation are disabled")
	}

	resolver := usecase.NewNutritionResolver(log,
		usecase.NewUSDAProvider(usdaClient, lookupCache, cfg.Cache.TTL, log),
		usecase.NewGenerativeProvider(openai.NewEstimator(openaiClient)),
	)

	converter := usecase.NewUnitConverter(usecase.NewNutritionPieceWeights(ingredientNutrition), log)
	aggregator := usecase.NewRecipeAggregator(converter, log)
	calculator := usecase.NewRecipeCalculator(recipes, ingredients, ingredientNutrition, recipeNutrition, aggregator, log)

	translationService, err := usecase.NewTranslationService(ingredients, recipes, translations, openai.NewTranslator(openaiClient), cfg.Locale.Targets, log)
	if err != nil {
		return err
	}

	publisher := qstash.NewPublisher(cfg.QStash.URL, cfg.QStash.Token, log)
	verifier := qstash.NewVerifier(cfg.QStash.CurrentSigningKey, cfg.QStash.NextSigningKey)
	if cfg.QStash.CurrentSigningKey == "" && cfg.QStash.NextSigningKey == "" {
		log.Warn("no QStash signing keys configured, every job delivery will be rejected")
	}

	dispatcher := usecase.NewDispatcher(publisher, calculator, cfg.Server.PublicURL, cfg.Locale.Default, log)
	cleanup := usecase.NewCleanup(ingredientNutrition, recipeNutrition, translations, log)

	content := usecase.NewContentService(usecase.ContentStores{
		Ingredients:         ingredients,
		Recipes:             recipes,
		Translations:        translations,
		IngredientNutrition: ingredientNutrition,
		RecipeNutrition:     recipeNutrition,
	}, cfg.Locale.Default, log, usecase.ChangeHookFunc(dispatcher.Dispatch), cleanup)

	consumer := usecase.NewJobConsumer(ingredients, ingredientNutrition, resolver, calculator, translationService, log)

	handler := httpDelivery.NewHandler(content, consumer, version, log)
	router := httpDelivery.SetupRouter(cfg, handler, verifier, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCache(ctx context.Context, cfg *config.Config, log *logger.Logger) (domain.CacheRepository, error) {
	if cfg.Cache.Type == "redis" {
		c, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, log)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(ctx), nil
}
