package storage

import (
	"context"
	"fmt"

	"github.com/SundayYogurt/directory_service/config"
	"github.com/SundayYogurt/directory_service/internal/domain"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// same id on every instance so only one of them migrates at a time
const migrateLockID int64 = 20260222

// Models lists every table the service owns.
func Models() []any {
	return []any{
		&domain.User{},
		&domain.Role{},
		&domain.UserRole{},
		&domain.Lookup{},
		&domain.ReviewLog{},
		&domain.Association{},
		&domain.Company{},
		&domain.Venue{},
		&domain.Conference{},
		&domain.Exhibition{},
		&domain.KeyContact{},
	}
}

func Open(cfg config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}

	switch cfg.DatabaseDriver {
	case "sqlite":
		dsn := cfg.DatabaseDSN
		if dsn == "" {
			dsn = ":memory:"
		}
		return openSQLite(dsn, gcfg)
	case "postgres", "":
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseDSN,
			PreferSimpleProtocol: true,
		}), gcfg)
		if err != nil {
			return nil, fmt.Errorf("database connection error: %w", err)
		}
		return db, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}

// OpenMemory returns a migrated in-memory sqlite database.
func OpenMemory() (*gorm.DB, error) {
	db, err := openSQLite(":memory:", &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(context.Background(), db); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(dsn string, gcfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gcfg)
	if err != nil {
		return nil, fmt.Errorf("sqlite open error: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one connection keeps a :memory: database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// Migrate runs AutoMigrate, guarded by an advisory lock on postgres.
func Migrate(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("migration lock error: %w", err)
		}
		defer func() {
			_ = db.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
		}()
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	logrus.WithField("driver", db.Dialector.Name()).Info("migration successful")
	return nil
}
