package migrations

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"restaurant_pos/internal/apperr"
	"restaurant_pos/internal/database"
	"restaurant_pos/internal/models"
	"restaurant_pos/internal/repository"
	"restaurant_pos/internal/services"
)

// Options controls the default data written by RunMigrations.
type Options struct {
	AdminUsername     string
	AdminPassword     string
	LowStockThreshold int
}

// RunMigrations migrates the schema, seeds the admin account and writes
// retroactive stock entries for products that never had one.
func RunMigrations(ctx context.Context, db *gorm.DB, opts Options) error {
	log.Info("Running database migrations...")
	if err := database.AutoMigrate(db); err != nil {
		return err
	}

	repos := repository.New(db)
	if err := createDefaultData(repos, opts); err != nil {
		log.WithError(err).Warn("Failed to create default data")
	}

	created, err := services.NewInventoryService(repos, opts.LowStockThreshold).Backfill(ctx)
	if err != nil {
		return err
	}

	log.WithField("backfilled_entries", len(created)).Info("Database migrations completed successfully")
	return nil
}

func createDefaultData(repos *repository.Repositories, opts Options) error {
	userService := services.NewUserService(repos.Users)

	existingUser, err := userService.GetUserByUsername(opts.AdminUsername)
	if err == nil && existingUser != nil {
		log.WithField("username", opts.AdminUsername).Info("Admin user already exists")
		return nil
	}
	if err != nil && !errors.Is(err, apperr.ErrUserNotFound) {
		return err
	}

	admin := &models.User{
		Username: opts.AdminUsername,
		Name:     "Administrator",
		Role:     string(models.Admin),
		IsActive: true,
	}
	if err := userService.CreateUser(admin, opts.AdminPassword); err != nil {
		return err
	}
	log.WithFields(log.Fields{"username": admin.Username, "id": admin.ID}).Info("Admin user created")
	return nil
}
