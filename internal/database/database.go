package database

import (
	"fmt"

	"github.com/wardrobe/backend/internal/config"
	"github.com/wardrobe/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Outfit{},
		&models.ShareToken{},
		&models.Group{},
		&models.GroupMembership{},
		&models.GroupShare{},
		&models.Rating{},
		&models.AuditLog{},
	); err != nil {
		return err
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	constraint := `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1
    FROM pg_constraint
    WHERE conname = 'rating_value_check'
  ) THEN
    ALTER TABLE ratings
    ADD CONSTRAINT rating_value_check
    CHECK (value BETWEEN 1 AND 5);
  END IF;
END $$;`

	return db.Exec(constraint).Error
}
