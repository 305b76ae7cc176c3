package datastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/calorietrack/calorietrack-go/internal/conf"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLiteStore implements the datastore interface for SQLite
type SQLiteStore struct {
	DataStore
	Settings *conf.Settings
}

func validateSQLiteConfig(settings *conf.Settings) error {
	if settings.Output.SQLite.Path == "" {
		return fmt.Errorf("SQLite database path is empty")
	}
	return nil
}

// Open sets up the SQLite database connection and runs migrations
func (store *SQLiteStore) Open() error {
	if err := validateSQLiteConfig(store.Settings); err != nil {
		return err
	}

	path := store.Settings.Output.SQLite.Path

	// In-memory databases need no directory handling
	if !strings.Contains(path, ":memory:") {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: createGormLogger()})
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Enforce the DetectedItem -> Prediction cascade at the engine level
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return fmt.Errorf("failed to enable SQLite foreign keys: %w", err)
	}

	store.DB = db
	return performAutoMigration(db, store.Settings.Debug, "SQLite", path)
}

// Close closes the underlying SQLite database connection
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}
