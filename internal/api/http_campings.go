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

func parseUintListParam(c *gin.Context, name string) []uint {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids
}

func makeCampingTags(tags []entity.DbCampingTag) []entity.Tag {
	out := make([]entity.Tag, 0, len(tags))
	for _, tag := range tags {
		out = append(out, entity.Tag{
			ID:   tag.ID,
			Name: tag.Name,
		})
	}
	return out
}

func (h *HTTPHandler) makePhotos(paths entity.StringArray) []entity.Photo {
	photos := make([]entity.Photo, 0, len(paths))
	for _, path := range paths {
		photos = append(photos, entity.Photo{
			Path: path,
			URL:  h.publicURL(path),
		})
	}
	return photos
}

func (h *HTTPHandler) makeCampingItem(camping *entity.DbCamping) entity.CampingItem {
	return entity.CampingItem{
		ID:        camping.ID,
		Title:     camping.Title,
		VisitedDt: camping.VisitedDt,
		Review:    camping.Review,
		Price:     camping.Price,
		Photos:    h.makePhotos(camping.Photos),
		Tags:      makeCampingTags(camping.Tags),
		CreateDt:  camping.CreatedAt,
		UpdateDt:  camping.UpdatedAt,
	}
}

// ListCampings returns the caller's camping entries, newest update first.
func (h *HTTPHandler) ListCampings(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var params entity.CampingQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}
	params.TagIDs = parseUintListParam(c, "tags")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	campings, meta, err := h.repo.ListCampings(ctx, current.ID, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list campings")
		InternalError(c, "failed to list campings")
		return
	}

	items := make([]entity.CampingItem, 0, len(campings))
	for i := range campings {
		items = append(items, h.makeCampingItem(&campings[i]))
	}

	c.JSON(http.StatusOK, entity.CampingListResponse{
		Campings: items,
		Meta:     meta,
	})
}

// CreateCamping logs a new camping entry for the caller.
func (h *HTTPHandler) CreateCamping(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.CampingUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	visited := time.Now().UTC()
	if req.VisitedDt != nil {
		visited = *req.VisitedDt
	}

	camping := &entity.DbCamping{
		UserID:    current.ID,
		Title:     strings.TrimSpace(req.Title),
		VisitedDt: visited,
		Review:    req.Review,
		Price:     *req.Price,
		Photos:    entity.StringArray{},
	}

	var tags []entity.TagDescriptor
	if req.Tags != nil {
		tags = *req.Tags
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateCamping(ctx, camping, tags); err != nil {
		logrus.WithError(err).Error("failed to create camping")
		InternalError(c, "failed to create camping")
		return
	}

	c.JSON(http.StatusCreated, entity.CampingDetailResponse{Camping: h.makeCampingItem(camping)})
}

// GetCamping returns a single camping entry. Entries of other users are
// indistinguishable from missing ones.
func (h *HTTPHandler) GetCamping(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	camping, err := h.repo.GetCamping(ctx, current.ID, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCampingNotFound, "camping not found")
			return
		}
		logrus.WithError(err).WithField("camping_id", id).Error("failed to load camping")
		InternalError(c, "failed to load camping")
		return
	}

	c.JSON(http.StatusOK, entity.CampingDetailResponse{Camping: h.makeCampingItem(camping)})
}

// UpdateCamping replaces all scalar fields of an entry. A missing tags key
// leaves the tag relation untouched.
func (h *HTTPHandler) UpdateCamping(c *gin.Context) {
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

	var req entity.CampingUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	title := strings.TrimSpace(req.Title)
	updates := entity.CampingUpdates{
		Title:     &title,
		VisitedDt: req.VisitedDt,
		Review:    &req.Review,
		Price:     req.Price,
	}

	h.applyCampingUpdate(c, current.ID, uint(id), updates, req.Tags)
}

// PatchCamping applies a partial update to an entry.
func (h *HTTPHandler) PatchCamping(c *gin.Context) {
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

	var req entity.CampingPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.CampingUpdates{
		VisitedDt: req.VisitedDt,
		Review:    req.Review,
		Price:     req.Price,
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		updates.Title = &trimmed
	}

	h.applyCampingUpdate(c, current.ID, uint(id), updates, req.Tags)
}

func (h *HTTPHandler) applyCampingUpdate(c *gin.Context, ownerID, id uint, updates entity.CampingUpdates, tags *[]entity.TagDescriptor) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.UpdateCamping(ctx, ownerID, id, updates, tags); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCampingNotFound, "camping not found")
			return
		}
		logrus.WithError(err).WithField("camping_id", id).Error("failed to update camping")
		InternalError(c, "failed to update camping")
		return
	}

	camping, err := h.repo.GetCamping(ctx, ownerID, id)
	if err != nil {
		logrus.WithError(err).WithField("camping_id", id).Error("failed to reload camping")
		InternalError(c, "failed to update camping")
		return
	}

	c.JSON(http.StatusOK, entity.CampingDetailResponse{Camping: h.makeCampingItem(camping)})
}

// DeleteCamping removes an entry. Its tags survive with zero usage.
func (h *HTTPHandler) DeleteCamping(c *gin.Context) {
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

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteCamping(ctx, current.ID, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeCampingNotFound, "camping not found")
			return
		}
		logrus.WithError(err).WithField("camping_id", id).Error("failed to delete camping")
		InternalError(c, "failed to delete camping")
		return
	}

	c.Status(http.StatusNoContent)
}
