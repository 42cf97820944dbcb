package http

import (
	"github.com/gin-gonic/gin"

	"github.com/macrolens/recipesync/config"
	"github.com/macrolens/recipesync/internal/platform/logger"
	"github.com/macrolens/recipesync/internal/usecase"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, verifier SignatureVerifier, log *logger.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		ingredients := v1.Group("/ingredients")
		{
			ingredients.POST("", handler.CreateIngredient)
			ingredients.GET("/:id", handler.GetIngredient)
			ingredients.PUT("/:id", handler.UpdateIngredient)
			ingredients.DELETE("/:id", handler.DeleteIngredient)
			ingredients.GET("/:id/nutrition", handler.GetIngredientNutrition)
		}

		recipes := v1.Group("/recipes")
		{
			recipes.POST("", handler.CreateRecipe)
			recipes.GET("/:id", handler.GetRecipe)
			recipes.PUT("/:id", handler.UpdateRecipe)
			recipes.DELETE("/:id", handler.DeleteRecipe)
			recipes.GET("/:id/nutrition", handler.GetRecipeNutrition)
		}
	}

	// Job deliveries authenticate by body signature, not by origin.
	jobs := router.Group("", SignatureMiddleware(verifier, log))
	{
		jobs.POST(usecase.NutritionJobPath, handler.NutritionJob)
		jobs.POST(usecase.TranslationJobPath, handler.TranslationJob)
	}

	return router
}
