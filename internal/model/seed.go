package model

import (
	"context"
	"errors"
	"strings"

	"logbook/internal/auth"
	"logbook/internal/config"
	"logbook/internal/entity"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SeedAdminUser creates the bootstrap admin account when configured and
// missing. Existing accounts are left untouched.
func SeedAdminUser(ctx context.Context, repo Repository, cfg config.Config) error {
	if repo == nil {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(cfg.SeedAdminEmail))
	password := strings.TrimSpace(cfg.SeedAdminPassword)
	if email == "" || password == "" {
		return nil
	}

	_, err := repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	user := &entity.DbUser{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  "Admin",
		Role:         entity.UserRoleAdmin,
		IsActive:     true,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return err
	}

	logrus.WithField("email", email).Info("seeded admin user")
	return nil
}
