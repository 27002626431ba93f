package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"logbook/internal/entity"
	"logbook/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const maxPhotoBytes = 10 << 20

func (h *HTTPHandler) readPhotoUpload(c *gin.Context) ([]byte, string, bool) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		MissingField(c, "photo")
		return nil, "", false
	}
	if fileHeader.Size > maxPhotoBytes {
		ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodePhotoTooLarge, "photo exceeds the 10MB limit")
		return nil, "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("failed to open uploaded photo")
		InternalError(c, "failed to read photo")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		logrus.WithError(err).Error("failed to read uploaded photo")
		InternalError(c, "failed to read photo")
		return nil, "", false
	}
	if len(data) > maxPhotoBytes {
		ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodePhotoTooLarge, "photo exceeds the 10MB limit")
		return nil, "", false
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
	return data, ext, true
}

// UploadCampingPhoto attaches a photo to one of the caller's camping
// entries.
func (h *HTTPHandler) UploadCampingPhoto(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid camping id")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	camping, err := h.repo.GetCamping(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCampingNotFound, "camping not found")
			return
		}
		logrus.WithError(err).WithField("camping_id", id).Error("failed to load camping")
		InternalError(c, "failed to upload photo")
		return
	}

	data, ext, ok := h.readPhotoUpload(c)
	if !ok {
		return
	}

	path, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "campings",
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to store photo")
		InternalError(c, "failed to store photo")
		return
	}

	photos := append(entity.StringArray{}, camping.Photos...)
	photos = append(photos, path)

	if err := h.repo.UpdateCamping(ctx, current.ID, uint(id), entity.CampingUpdates{Photos: &photos}, nil); err != nil {
		logrus.WithError(err).WithField("camping_id", id).Error("failed to attach photo")
		InternalError(c, "failed to attach photo")
		return
	}

	c.JSON(http.StatusCreated, entity.Photo{Path: path, URL: h.publicURL(path)})
}

// DeleteCampingPhoto detaches a photo from a camping entry. The stored
// file is removed when the backend supports it.
func (h *HTTPHandler) DeleteCampingPhoto(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid camping id")
		return
	}

	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		MissingField(c, "path")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	camping, err := h.repo.GetCamping(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCampingNotFound, "camping not found")
			return
		}
		logrus.WithError(err).WithField("camping_id", id).Error("failed to load camping")
		InternalError(c, "failed to delete photo")
		return
	}

	if !camping.Photos.Contains(path) {
		NotFound(c, ErrCodeNotFound, "photo not found")
		return
	}

	photos := entity.StringArray{}
	for _, p := range camping.Photos {
		if p != path {
			photos = append(photos, p)
		}
	}

	if err := h.repo.UpdateCamping(ctx, current.ID, uint(id), entity.CampingUpdates{Photos: &photos}, nil); err != nil {
		logrus.WithError(err).WithField("camping_id", id).Error("failed to detach photo")
		InternalError(c, "failed to delete photo")
		return
	}

	h.removeStoredPhoto(ctx, path)

	c.Status(http.StatusNoContent)
}

// UploadRecipePhoto attaches a photo to one of the caller's recipes.
func (h *HTTPHandler) UploadRecipePhoto(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	recipe, err := h.repo.GetRecipe(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecipeNotFound, "recipe not found")
			return
		}
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to load recipe")
		InternalError(c, "failed to upload photo")
		return
	}

	data, ext, ok := h.readPhotoUpload(c)
	if !ok {
		return
	}

	path, err := h.storage.Save(ctx, data, storage.SaveOptions{
		Category:  "recipes",
		Extension: ext,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to store photo")
		InternalError(c, "failed to store photo")
		return
	}

	photos := append(entity.StringArray{}, recipe.Photos...)
	photos = append(photos, path)

	if err := h.repo.UpdateRecipe(ctx, current.ID, uint(id), entity.RecipeUpdates{Photos: &photos}, nil); err != nil {
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to attach photo")
		InternalError(c, "failed to attach photo")
		return
	}

	c.JSON(http.StatusCreated, entity.Photo{Path: path, URL: h.publicURL(path)})
}

// DeleteRecipePhoto detaches a photo from a recipe.
func (h *HTTPHandler) DeleteRecipePhoto(c *gin.Context) {
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

	path := strings.TrimSpace(c.Query("path"))
	if path == "" {
		MissingField(c, "path")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	recipe, err := h.repo.GetRecipe(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeRecipeNotFound, "recipe not found")
			return
		}
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to load recipe")
		InternalError(c, "failed to delete photo")
		return
	}

	if !recipe.Photos.Contains(path) {
		NotFound(c, ErrCodeNotFound, "photo not found")
		return
	}

	photos := entity.StringArray{}
	for _, p := range recipe.Photos {
		if p != path {
			photos = append(photos, p)
		}
	}

	if err := h.repo.UpdateRecipe(ctx, current.ID, uint(id), entity.RecipeUpdates{Photos: &photos}, nil); err != nil {
		logrus.WithError(err).WithField("recipe_id", id).Error("failed to detach photo")
		InternalError(c, "failed to delete photo")
		return
	}

	h.removeStoredPhoto(ctx, path)

	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) removeStoredPhoto(ctx context.Context, path string) {
	remover, ok := h.storage.(storage.Remover)
	if !ok {
		return
	}
	if err := remover.Remove(ctx, path); err != nil {
		logrus.WithError(err).WithField("path", path).Warn("failed to remove stored photo")
	}
}
