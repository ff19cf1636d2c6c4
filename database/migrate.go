package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"dthink_backend/internal/config"
	"dthink_backend/internal/models"
	"dthink_backend/internal/session"
)

var gormDB *gorm.DB

// ConnectGorm opens the configured postgres database once per process.
func ConnectGorm() (*gorm.DB, error) {
	if gormDB != nil {
		return gormDB, nil
	}

	cfg := config.GetConfig()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to GORM: %w", err)
	}

	gormDB = db
	return db, nil
}

// AutoMigrate migrates every model plus the session table.
func AutoMigrate(db *gorm.DB) error {
	// uuid_generate_v4 defaults require the extension.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return fmt.Errorf("failed to enable uuid-ossp: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.SubscriptionPlan{},
		&models.PaymentTransaction{},
		&models.Project{},
		&models.ProjectMember{},
		&models.PhaseEntry{},
		&models.ProjectInvite{},
		&models.LibraryItem{},
		&session.Record{},
	)
	if err != nil {
		return fmt.Errorf("AutoMigrate failed: %w", err)
	}
	return nil
}

// SeedFreeTier guarantees exactly one zero-price plan named "free" exists.
// The quota evaluator treats it as the default for users without a plan.
func SeedFreeTier(db *gorm.DB) error {
	var existing models.SubscriptionPlan
	err := db.Where("name = ?", "free").First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for free plan: %w", err)
	}

	limits, _ := json.Marshal(map[string]int{
		models.LimitProjects: models.FreeProjectLimit,
	})

	plan := &models.SubscriptionPlan{
		Name:        "free",
		DisplayName: "Free",
		Price:       0,
		Currency:    "USD",
		Limits:      limits,
		IsActive:    true,
	}
	if err := db.Create(plan).Error; err != nil {
		return fmt.Errorf("failed to seed free plan: %w", err)
	}
	return nil
}
