// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/calorietrack/calorietrack-go/internal/conf"
	"github.com/calorietrack/calorietrack-go/internal/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// maxRecentLimit caps the page size of recent-prediction queries so a
// caller cannot request an unbounded result set.
const maxRecentLimit = 1000

// Interface abstracts the underlying database implementation and defines the
// operations available to the rest of the application.
type Interface interface {
	Open() error
	Close() error
	Save(prediction *Prediction, items []DetectedItem) error
	Get(id uint) (Prediction, error)
	GetRecent(limit, offset int) ([]Prediction, error)
	GetPredictionsSince(since time.Time) ([]Prediction, error)
	CountSince(since time.Time) (int64, error)
	GetDailyTrendData(since time.Time) ([]DailyTrendData, error)
	GetTopLabels(since time.Time, limit int) ([]LabelCount, error)
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided configuration.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		// Settings validation rejects this case before we get here
		return nil
	}
}

// Save stores a prediction and its associated detected items as a single
// transaction in the database. The prediction timestamp is assigned here at
// commit time. Either both halves of the write succeed or neither is visible
// to readers.
func (ds *DataStore) Save(prediction *Prediction, items []DetectedItem) error {
	if ds.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if prediction.Timestamp.IsZero() {
		prediction.Timestamp = time.Now()
	}
	prediction.TotalItems = len(items)

	// Begin a transaction
	tx := ds.DB.Begin()
	if tx.Error != nil {
		return errors.New(fmt.Errorf("starting transaction: %w", tx.Error)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	// Roll back the transaction if a panic occurs
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// Save the prediction record within the transaction
	if err := tx.Omit("Items").Create(prediction).Error; err != nil {
		tx.Rollback()
		return errors.New(fmt.Errorf("saving prediction: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("session_id", prediction.SessionID).
			Build()
	}

	// Assign the prediction ID to each item and save them
	for i := range items {
		items[i].PredictionID = prediction.ID
		if err := tx.Create(&items[i]).Error; err != nil {
			tx.Rollback()
			return errors.New(fmt.Errorf("saving detected item: %w", err)).
				Component("datastore").
				Category(errors.CategoryDatabase).
				Context("prediction_id", prediction.ID).
				Context("label", items[i].Label).
				Build()
		}
	}

	// Commit the transaction
	if err := tx.Commit().Error; err != nil {
		return errors.New(fmt.Errorf("committing transaction: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	prediction.Items = items
	return nil
}

// Get retrieves a prediction and its detected items by ID.
func (ds *DataStore) Get(id uint) (Prediction, error) {
	var prediction Prediction
	err := ds.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("confidence DESC")
	}).First(&prediction, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Prediction{}, errors.Newf("prediction %d not found", id).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return Prediction{}, errors.New(fmt.Errorf("getting prediction %d: %w", id, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return prediction, nil
}

// GetRecent retrieves the most recent predictions with their detected items,
// ordered by timestamp descending. Items within a prediction are ordered by
// confidence descending. The limit is capped at maxRecentLimit.
func (ds *DataStore) GetRecent(limit, offset int) ([]Prediction, error) {
	if limit <= 0 {
		return nil, errors.Newf("limit must be a positive integer, got %d", limit).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if offset < 0 {
		return nil, errors.Newf("offset must not be negative, got %d", offset).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	var predictions []Prediction
	err := ds.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("confidence DESC")
	}).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&predictions).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("getting recent predictions: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return predictions, nil
}

// GetPredictionsSince retrieves all predictions with a timestamp at or after
// the given instant. The query runs on the timestamp index.
func (ds *DataStore) GetPredictionsSince(since time.Time) ([]Prediction, error) {
	var predictions []Prediction
	err := ds.DB.Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("getting predictions since %s: %w", since, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return predictions, nil
}

// CountSince returns the number of predictions within the trailing window.
func (ds *DataStore) CountSince(since time.Time) (int64, error) {
	var count int64
	err := ds.DB.Model(&Prediction{}).
		Where("timestamp >= ?", since).
		Count(&count).Error
	if err != nil {
		return 0, errors.New(fmt.Errorf("counting predictions: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return count, nil
}

// performAutoMigration automates database migrations with error handling.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Prediction{}, &DetectedItem{}); err != nil {
		return errors.New(fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	if debug {
		log.Printf("%s database connection initialized: %s", dbType, connectionInfo)
	}

	return nil
}

// createGormLogger configures and returns a new GORM logger instance.
func createGormLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logger.Warn,
			Colorful:      true,
		},
	)
}
