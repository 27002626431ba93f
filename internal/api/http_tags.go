package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"logbook/internal/entity"
	"logbook/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func makeCampingTagDetail(tag *entity.DbCampingTag) entity.Tag {
	return entity.Tag{
		ID:         tag.ID,
		Name:       tag.Name,
		UsageCount: tag.UsageCount,
		CreatedAt:  tag.CreatedAt,
		UpdatedAt:  tag.UpdatedAt,
	}
}

func makeRecipeTagDetail(tag *entity.DbRecipeTag) entity.Tag {
	return entity.Tag{
		ID:         tag.ID,
		Name:       tag.Name,
		Slug:       tag.Slug,
		UsageCount: tag.UsageCount,
		CreatedAt:  tag.CreatedAt,
		UpdatedAt:  tag.UpdatedAt,
	}
}

// ListCampingTags returns the caller's camping tag taxonomy with usage
// counts, name descending.
func (h *HTTPHandler) ListCampingTags(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tags, err := h.repo.ListCampingTags(ctx, current.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to list camping tags")
		InternalError(c, "failed to list camping tags")
		return
	}

	out := make([]entity.Tag, 0, len(tags))
	for i := range tags {
		out = append(out, makeCampingTagDetail(&tags[i]))
	}

	c.JSON(http.StatusOK, entity.TagListResponse{Tags: out})
}

// CreateCampingTag adds a tag to the caller's taxonomy without attaching
// it to any entry.
func (h *HTTPHandler) CreateCampingTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.TagDescriptor
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		MissingField(c, "name")
		return
	}

	tag := &entity.DbCampingTag{
		UserID: current.ID,
		Name:   name,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateCampingTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeTagExists, "tag name already exists")
			return
		}
		logrus.WithError(err).Error("failed to create camping tag")
		InternalError(c, "failed to create camping tag")
		return
	}

	c.JSON(http.StatusCreated, entity.TagDetailResponse{Tag: makeCampingTagDetail(tag)})
}

// GetCampingTag returns a single camping tag with its usage count.
func (h *HTTPHandler) GetCampingTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tag id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.repo.GetCampingTag(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to load camping tag")
		InternalError(c, "failed to load camping tag")
		return
	}

	c.JSON(http.StatusOK, entity.TagDetailResponse{Tag: makeCampingTagDetail(tag)})
}

// PatchCampingTag renames a camping tag. Entries keep the tag under its
// new name.
func (h *HTTPHandler) PatchCampingTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tag id")
		return
	}

	var req entity.TagDescriptor
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		MissingField(c, "name")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateCampingTag(ctx, current.ID, uint(id), entity.TagUpdates{Name: &name}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeTagExists, "tag name already exists")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to update camping tag")
		InternalError(c, "failed to update camping tag")
		return
	}

	tag, err := h.repo.GetCampingTag(ctx, current.ID, uint(id))
	if err != nil {
		logrus.WithError(err).WithField("tag_id", id).Error("failed to reload camping tag")
		InternalError(c, "failed to update camping tag")
		return
	}

	c.JSON(http.StatusOK, entity.TagDetailResponse{Tag: makeCampingTagDetail(tag)})
}

// DeleteCampingTag removes a tag from the taxonomy and detaches it from
// every entry that carried it.
func (h *HTTPHandler) DeleteCampingTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tag id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteCampingTag(ctx, current.ID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to delete camping tag")
		InternalError(c, "failed to delete camping tag")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListRecipeTags returns the caller's recipe tag taxonomy with usage
// counts, oldest update first.
func (h *HTTPHandler) ListRecipeTags(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tags, err := h.repo.ListRecipeTags(ctx, current.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to list recipe tags")
		InternalError(c, "failed to list recipe tags")
		return
	}

	out := make([]entity.Tag, 0, len(tags))
	for i := range tags {
		out = append(out, makeRecipeTagDetail(&tags[i]))
	}

	c.JSON(http.StatusOK, entity.TagListResponse{Tags: out})
}

// CreateRecipeTag adds a tag to the caller's recipe taxonomy.
func (h *HTTPHandler) CreateRecipeTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.TagDescriptor
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		MissingField(c, "name")
		return
	}

	tag := &entity.DbRecipeTag{
		UserID: current.ID,
		Name:   name,
		Slug:   utils.Slugify(name),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateRecipeTag(ctx, tag); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeTagExists, "tag name already exists")
			return
		}
		logrus.WithError(err).Error("failed to create recipe tag")
		InternalError(c, "failed to create recipe tag")
		return
	}

	c.JSON(http.StatusCreated, entity.TagDetailResponse{Tag: makeRecipeTagDetail(tag)})
}

// GetRecipeTag returns a single recipe tag with its usage count.
func (h *HTTPHandler) GetRecipeTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tag id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	tag, err := h.repo.GetRecipeTag(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to load recipe tag")
		InternalError(c, "failed to load recipe tag")
		return
	}

	c.JSON(http.StatusOK, entity.TagDetailResponse{Tag: makeRecipeTagDetail(tag)})
}

// PatchRecipeTag renames a recipe tag and refreshes its slug.
func (h *HTTPHandler) PatchRecipeTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tag id")
		return
	}

	var req entity.TagDescriptor
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		MissingField(c, "name")
		return
	}
	slug := utils.Slugify(name)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateRecipeTag(ctx, current.ID, uint(id), entity.TagUpdates{Name: &name, Slug: &slug}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeTagExists, "tag name already exists")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to update recipe tag")
		InternalError(c, "failed to update recipe tag")
		return
	}

	tag, err := h.repo.GetRecipeTag(ctx, current.ID, uint(id))
	if err != nil {
		logrus.WithError(err).WithField("tag_id", id).Error("failed to reload recipe tag")
		InternalError(c, "failed to update recipe tag")
		return
	}

	c.JSON(http.StatusOK, entity.TagDetailResponse{Tag: makeRecipeTagDetail(tag)})
}

// DeleteRecipeTag removes a tag and detaches it from every recipe.
func (h *HTTPHandler) DeleteRecipeTag(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid tag id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteRecipeTag(ctx, current.ID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeTagNotFound, "tag not found")
			return
		}
		logrus.WithError(err).WithField("tag_id", id).Error("failed to delete recipe tag")
		InternalError(c, "failed to delete recipe tag")
		return
	}

	c.Status(http.StatusNoContent)
}
