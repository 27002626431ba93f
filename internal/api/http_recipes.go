package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"logbook/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func makeRecipeTags(tags []entity.DbRecipeTag) []entity.Tag {
	out := make([]entity.Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, entity.Tag{
			ID:   tag.ID,
			Name: tag.Name,
			Slug: tag.Slug,
		})
	}
	return out
}

func (h *HTTPHandler) makeRecipeSummary(recipe *entity.DbRecipe) entity.RecipeSummary {
	summary := entity.RecipeSummary{
		ID:          recipe.ID,
		Title:       recipe.Title,
		TimeMinutes: recipe.TimeMinutes,
		Price:       recipe.Price,
		Link:        recipe.Link,
		Photos:      h.makePhotos(recipe.Photos),
		Tags:        makeRecipeTags(recipe.Tags),
		CreateDt:    recipe.CreatedAt,
		UpdateDt:    recipe.UpdatedAt,
	}
	if recipe.User != nil {
		summary.User = makeUserSummary(recipe.User)
	}
	return summary
}

func (h *HTTPHandler) makeRecipeItem(recipe *entity.DbRecipe) entity.RecipeItem {
	return entity.RecipeItem{
		RecipeSummary: h.makeRecipeSummary(recipe),
		Description:   recipe.Description,
	}
}

// ListRecipes returns the caller's recipes, newest update first. The
// description is omitted from list items.
func (h *HTTPHandler) ListRecipes(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var params entity.RecipeQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}
	params.TagIDs = parseUintListParam(c, "tags")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipes, meta, err := h.repo.ListRecipes(ctx, current.ID, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list recipes")
		InternalError(c, "failed to list recipes")
		return
	}

	summaries := make([]entity.RecipeSummary, 0, len(recipes))
	for i := range recipes {
		summaries = append(summaries, h.makeRecipeSummary(&recipes[i]))
	}

	c.JSON(http.StatusOK, entity.RecipeListResponse{
		Recipes: summaries,
		Meta:    meta,
	})
}

// CreateRecipe logs a new recipe for the caller.
func (h *HTTPHandler) CreateRecipe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.RecipeUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	recipe := &entity.DbRecipe{
		UserID:      current.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		TimeMinutes: *req.TimeMinutes,
		Price:       *req.Price,
		Link:        strings.TrimSpace(req.Link),
		Photos:      entity.StringArray{},
	}

	var tags []entity.TagDescriptor
	if req.Tags != nil {
		tags = *req.Tags
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateRecipe(ctx, recipe, tags); err != nil {
		logrus.WithError(err).Error("failed to create recipe")
		InternalError(c, "failed to create recipe")
		return
	}

	created, err := h.repo.GetRecipe(ctx, current.ID, recipe.ID)
	if err != nil {
		logrus.WithError(err).WithField("recipe_id", recipe.ID).Error("failed to reload recipe")
		InternalError(c, "failed to create recipe")
		return
	}

	c.JSON(http.StatusCreated, entity.RecipeDetailResponse{Recipe: h.makeRecipeItem(created)})
}

// GetRecipe returns a single recipe with its description.
func (h *HTTPHandler) GetRecipe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid recipe id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	recipe, err := h.repo.GetRecipe(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecipeNotFound, "recipe not found")
			return
		}
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to load recipe")
		InternalError(c, "failed to load recipe")
		return
	}

	c.JSON(http.StatusOK, entity.RecipeDetailResponse{Recipe: h.makeRecipeItem(recipe)})
}

// UpdateRecipe replaces all scalar fields of a recipe. A missing tags key
// leaves the tag relation untouched.
func (h *HTTPHandler) UpdateRecipe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid recipe id")
		return
	}

	var req entity.RecipeUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	title := strings.TrimSpace(req.Title)
	link := strings.TrimSpace(req.Link)
	updates := entity.RecipeUpdates{
		Title:       &title,
		Description: &req.Description,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
		Link:        &link,
	}

	h.applyRecipeUpdate(c, current.ID, uint(id), updates, req.Tags)
}

// PatchRecipe applies a partial update to a recipe.
func (h *HTTPHandler) PatchRecipe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid recipe id")
		return
	}

	var req entity.RecipePatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.RecipeUpdates{
		Description: req.Description,
		TimeMinutes: req.TimeMinutes,
		Price:       req.Price,
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		updates.Title = &trimmed
	}
	if req.Link != nil {
		trimmed := strings.TrimSpace(*req.Link)
		updates.Link = &trimmed
	}

	h.applyRecipeUpdate(c, current.ID, uint(id), updates, req.Tags)
}

func (h *HTTPHandler) applyRecipeUpdate(c *gin.Context, ownerID, id uint, updates entity.RecipeUpdates, tags *[]entity.TagDescriptor) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateRecipe(ctx, ownerID, id, updates, tags); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecipeNotFound, "recipe not found")
			return
		}
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to update recipe")
		InternalError(c, "failed to update recipe")
		return
	}

	recipe, err := h.repo.GetRecipe(ctx, ownerID, id)
	if err != nil {
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to reload recipe")
		InternalError(c, "failed to update recipe")
		return
	}

	c.JSON(http.StatusOK, entity.RecipeDetailResponse{Recipe: h.makeRecipeItem(recipe)})
}

// DeleteRecipe removes a recipe. Its tags survive with zero usage.
func (h *HTTPHandler) DeleteRecipe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid recipe id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteRecipe(ctx, current.ID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecipeNotFound, "recipe not found")
			return
		}
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to delete recipe")
		InternalError(c, "failed to delete recipe")
		return
	}

	c.Status(http.StatusNoContent)
}
