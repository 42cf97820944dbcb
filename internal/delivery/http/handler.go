package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/macrolens/recipesync/internal/domain"
	"github.com/macrolens/recipesync/internal/platform/logger"
	"github.com/macrolens/recipesync/internal/usecase"
)

const serviceName = "recipesync"

// ContentService is the content write and read path the handlers call.
type ContentService interface {
	CreateIngredient(ctx context.Context, in *domain.Ingredient, locale string) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, id uint, in *domain.Ingredient, locale string) (*domain.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uint) error
	GetIngredient(ctx context.Context, id uint, locale string) (*domain.Ingredient, error)
	GetIngredientNutrition(ctx context.Context, id uint) (*domain.IngredientNutrition, error)

	CreateRecipe(ctx context.Context, in *domain.Recipe, locale string) (*domain.Recipe, error)
	UpdateRecipe(ctx context.Context, id uint, in *domain.Recipe, locale string) (*domain.Recipe, error)
	DeleteRecipe(ctx context.Context, id uint) error
	GetRecipe(ctx context.Context, id uint, locale string) (*domain.Recipe, error)
	GetRecipeNutrition(ctx context.Context, id uint) (*domain.RecipeNutrition, error)
}

// JobConsumer processes verified job deliveries.
type JobConsumer interface {
	HandleNutrition(ctx context.Context, msg domain.JobMessage) (*usecase.JobResult, error)
	HandleTranslation(ctx context.Context, msg domain.JobMessage) (*usecase.JobResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	content ContentService
	jobs    JobConsumer
	version string
	log     *logger.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(content ContentService, jobs JobConsumer, version string, log *logger.Logger) *Handler {
	return &Handler{content: content, jobs: jobs, version: version, log: log.With("service", "HTTPHandler")}
}

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// statusFor maps an error to its response status. Anything not classified as a
// client error is a processing failure the transport should retry.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "kind", domain.ErrorKind(err), "error", err)
	}
	abortWithError(c, status, err)
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": h.version,
	})
}

func pathID(c *gin.Context) (uint, error) {
	v, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || v == 0 {
		return 0, domain.ErrInvalidRequest
	}
	return uint(v), nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errors.Join(domain.ErrInvalidRequest, err)
	}
	return nil
}

func (h *Handler) CreateIngredient(c *gin.Context) {
	var in domain.Ingredient
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.CreateIngredient(c.Request.Context(), &in, c.Query("locale"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) GetIngredient(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.GetIngredient(c.Request.Context(), id, c.Query("locale"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateIngredient(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in domain.Ingredient
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.UpdateIngredient(c.Request.Context(), id, &in, c.Query("locale"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteIngredient(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.content.DeleteIngredient(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetIngredientNutrition(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.GetIngredientNutrition(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) CreateRecipe(c *gin.Context) {
	var in domain.Recipe
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.CreateRecipe(c.Request.Context(), &in, c.Query("locale"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *Handler) GetRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.GetRecipe(c.Request.Context(), id, c.Query("locale"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) UpdateRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	var in domain.Recipe
	if err := bindJSON(c, &in); err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.UpdateRecipe(c.Request.Context(), id, &in, c.Query("locale"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) DeleteRecipe(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.content.DeleteRecipe(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetRecipeNutrition(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	out, err := h.content.GetRecipeNutrition(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// NutritionJob handles a verified nutrition job delivery.
func (h *Handler) NutritionJob(c *gin.Context) {
	h.runJob(c, h.jobs.HandleNutrition)
}

// TranslationJob handles a verified translation job delivery.
func (h *Handler) TranslationJob(c *gin.Context) {
	h.runJob(c, h.jobs.HandleTranslation)
}

func (h *Handler) runJob(c *gin.Context, handle func(context.Context, domain.JobMessage) (*usecase.JobResult, error)) {
	var msg domain.JobMessage
	if err := bindJSON(c, &msg); err != nil {
		h.respondError(c, err)
		return
	}
	res, err := handle(c.Request.Context(), msg)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("job handled", "path", c.FullPath(), "entity", string(res.Entity), "id", res.ID, "outcome", res.Outcome,
		"message_id", c.GetHeader("Upstash-Message-Id"), "retried", c.GetHeader("Upstash-Retried"))
	c.JSON(http.StatusOK, res)
}
