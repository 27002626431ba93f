package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"logbook/internal/auth"
	"logbook/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func sanitizeRole(role string) string {
	if role == entity.UserRoleAdmin {
		return entity.UserRoleAdmin
	}
	return entity.UserRoleUser
}

// ListUsers returns all accounts, paginated. Admin only.
func (h *HTTPHandler) ListUsers(c *gin.Context) {
	var params entity.UserQuery
	if err := c.ShouldBindQuery(&params); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	users, meta, err := h.repo.ListUsers(ctx, &params)
	if err != nil {
		logrus.WithError(err).Error("failed to list users")
		InternalError(c, "failed to list users")
		return
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, makeUserSummary(&users[i]))
	}

	c.JSON(http.StatusOK, entity.UserListResponse{
		Users: summaries,
		Meta:  meta,
	})
}

// CreateUser provisions an account on behalf of an admin.
func (h *HTTPHandler) CreateUser(c *gin.Context) {
	var req entity.UserCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to create user")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user := &entity.DbUser{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         sanitizeRole(req.Role),
		IsActive:     active,
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeEmailExists, "email is already registered")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create user")
		return
	}

	c.JSON(http.StatusCreated, makeUserSummary(user))
}

// UpdateUser edits another account. Admin only.
func (h *HTTPHandler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	var req entity.UserUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.UserUpdates{
		IsActive: req.IsActive,
	}
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		updates.DisplayName = &trimmed
	}
	if req.Role != nil {
		role := sanitizeRole(*req.Role)
		updates.Role = &role
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			BadRequest(c, ErrCodeInvalidRequest, "password must be at least 8 characters")
			return
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			logrus.WithError(err).Error("failed to hash password")
			InternalError(c, "failed to update user")
			return
		}
		updates.PasswordHash = &hashed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if !updates.IsEmpty() {
		if err := h.repo.UpdateUser(ctx, uint(id), updates); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				NotFound(c, ErrCodeUserNotFound, "user not found")
				return
			}
			logrus.WithError(err).WithField("user_id", id).Error("failed to update user")
			InternalError(c, "failed to update user")
			return
		}
	}

	user, err := h.repo.GetUserByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to reload user")
		InternalError(c, "failed to update user")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(user))
}

// DeleteUser removes an account. Admin only; self-deletion is rejected.
func (h *HTTPHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, ErrCodeInvalidRequest, "invalid user id")
		return
	}

	current := CurrentUser(c)
	if current != nil && current.ID == uint(id) {
		BadRequest(c, ErrCodeCannotDeleteSelf, "cannot delete your own account")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.repo.DeleteUser(ctx, uint(id)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, ErrCodeUserNotFound, "user not found")
			return
		}
		logrus.WithError(err).WithField("user_id", id).Error("failed to delete user")
		InternalError(c, "failed to delete user")
		return
	}

	c.Status(http.StatusNoContent)
}
