// server/internal/database/seeder.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"magnova-scm-api-server/config"
	"magnova-scm-api-server/internal/auth"
	"magnova-scm-api-server/internal/models"
	"magnova-scm-api-server/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SeedAdmin makes sure an Admin user with cfg.AdminEmail exists. It reports whether one was created.
func SeedAdmin(ctx context.Context, users store.Users, cfg config.SeedConfig, logger *logrus.Logger) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" {
		return false, fmt.Errorf("seed.adminEmail is empty")
	}

	_, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		logger.WithField("email", email).Info("Admin already exists. Seeding skipped.")
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}

	if cfg.AdminPassword == "" {
		return false, fmt.Errorf("seed.adminPassword is required to create %s", email)
	}
	hashedPassword, err := auth.HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Password:     hashedPassword,
		Name:         cfg.AdminName,
		Organization: cfg.Organization,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.InsertUser(ctx, admin); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return false, nil
		}
		return false, fmt.Errorf("insert admin: %w", err)
	}

	logger.WithField("email", email).Info("Admin seeded successfully.")
	return true, nil
}
