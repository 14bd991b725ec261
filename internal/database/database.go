package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/resume-backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	db, err := Open(cfg.DSN())
	if err != nil {
		return err
	}
	DB = db
	slog.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)
	return nil
}

// Open connects to PostgreSQL and configures the pool.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// legacyExternalIDIndex covered soft-deleted users too and blocked them from
// signing up again. It is replaced by a partial index on live rows.
const legacyExternalIDIndex = "idx_users_external_id"

// Migrate runs AutoMigrate for every model the service owns.
func Migrate(db *gorm.DB) error {
	m := db.Migrator()
	if m.HasTable(&models.User{}) && m.HasIndex(&models.User{}, legacyExternalIDIndex) {
		if err := m.DropIndex(&models.User{}, legacyExternalIDIndex); err != nil {
			return fmt.Errorf("failed to drop %s: %w", legacyExternalIDIndex, err)
		}
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.SystemSettings{},
		&models.Resume{},
		&models.SystemLog{},
	)
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
