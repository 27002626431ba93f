package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"logbook/internal/auth"
	"logbook/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func makeUserSummary(user *entity.DbUser) entity.UserSummary {
	return entity.UserSummary{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		IsActive:    user.IsActive,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// Register creates a new account and returns a session token.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req entity.AuthRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		logrus.WithError(err).Error("failed to hash password")
		InternalError(c, "failed to create account")
		return
	}

	user := &entity.DbUser{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hashed,
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         entity.UserRoleUser,
		IsActive:     true,
	}

	if err := h.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			Conflict(c, ErrCodeEmailExists, "email is already registered")
			return
		}
		logrus.WithError(err).Error("failed to create user")
		InternalError(c, "failed to create account")
		return
	}

	token, expiresAt, err := h.authManager.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		InternalError(c, "failed to create session")
		return
	}

	c.JSON(http.StatusCreated, entity.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      makeUserSummary(user),
	})
}

// Login exchanges credentials for a session token.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req entity.AuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
			return
		}
		logrus.WithError(err).Error("failed to load user by email")
		InternalError(c, "failed to sign in")
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		ErrorResponse(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
		return
	}

	if !user.IsActive {
		ErrorResponse(c, http.StatusForbidden, ErrCodeUserDisabled, "account is disabled")
		return
	}

	token, expiresAt, err := h.authManager.GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("failed to generate token")
		InternalError(c, "failed to sign in")
		return
	}

	c.JSON(http.StatusOK, entity.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      makeUserSummary(user),
	})
}

// Me returns the authenticated user's profile.
func (h *HTTPHandler) Me(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	user, err := h.repo.GetUserByID(ctx, current.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to load profile")
		InternalError(c, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(user))
}

// UpdateMe lets the authenticated user change display name or password.
func (h *HTTPHandler) UpdateMe(c *gin.Context) {
	current := CurrentUser(c)
	if current == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var req entity.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		InvalidPayload(c)
		return
	}

	updates := entity.UserUpdates{}
	if req.DisplayName != nil {
		trimmed := strings.TrimSpace(*req.DisplayName)
		updates.DisplayName = &trimmed
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			BadRequest(c, ErrCodeInvalidRequest, "password must be at least 8 characters")
			return
		}
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			logrus.WithError(err).Error("failed to hash password")
			InternalError(c, "failed to update profile")
			return
		}
		updates.PasswordHash = &hashed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if !updates.IsEmpty() {
		if err := h.repo.UpdateUser(ctx, current.ID, updates); err != nil {
			logrus.WithError(err).Error("failed to update profile")
			InternalError(c, "failed to update profile")
			return
		}
	}

	user, err := h.repo.GetUserByID(ctx, current.ID)
	if err != nil {
		logrus.WithError(err).Error("failed to reload profile")
		InternalError(c, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, makeUserSummary(user))
}
