package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/eventboard/config"
	"github.com/d60-Lab/eventboard/internal/model"
)

// InitDB 打开数据库连接并完成表结构迁移
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.DSN)
	default:
		dialector = postgres.Open(cfg.Database.DSN)
	}

	db, err := Open(dialector, cfg.Database.Debug)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open wraps gorm.Open with the settings every caller needs.
func Open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	mode := logger.Silent
	if debug {
		mode = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(mode),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates the users and posts tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Post{}); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}
	return nil
}

// OpenMemory returns a migrated in-memory sqlite database. Used by tests.
func OpenMemory() (*gorm.DB, error) {
	db, err := Open(sqlite.Open(":memory:?_foreign_keys=on"), false)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
