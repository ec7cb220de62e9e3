package database

import (
	"fmt"

	"storefront-checkout/internal/common/models"
	"storefront-checkout/internal/pkg/logger"
)

func (db *Database) RunMigrations() error {
	logger.Info.Println("Starting database migrations...")

	models := []interface{}{
		&models.CheckoutAttempt{},
	}

	for _, model := range models {
		logger.Info.Printf("Migrating model: %T", model)
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	if db.Config.Driver == POSTGRES {
		if err := db.createIndexes(); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}

	logger.Info.Println("Database migrations completed successfully")
	return nil
}

func (db *Database) createIndexes() error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_checkout_attempts_unpaid ON checkout_attempts(user_id, created_at) WHERE status IN ('payment_pending', 'payment_failed', 'outcome_unknown');`,
	}

	for _, query := range indexes {
		if err := db.Exec(query).Error; err != nil {
			logger.Error.Printf("Error creating index: %s, Error: %v", query, err)
			return err
		}
	}

	return nil
}
