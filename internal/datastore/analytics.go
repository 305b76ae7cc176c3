// internal/datastore/analytics.go
package datastore

import (
	"fmt"
	"time"

	"github.com/calorietrack/calorietrack-go/internal/errors"
)

// DailyTrendData represents aggregated nutrition totals for one calendar date
type DailyTrendData struct {
	Date            string
	PredictionCount int
	TotalCalories   float64
	AvgCalories     float64
	TotalFats       float64
	TotalProtein    float64
}

// LabelCount represents the occurrence count of one canonical food label
type LabelCount struct {
	LabelCanonical string
	Count          int
	AvgConfidence  float64
}

// GetDailyTrendData retrieves per-date nutrition aggregates for predictions
// within the trailing window. Dates with no activity are absent from the
// result. Results are sorted ascending by date.
func (ds *DataStore) GetDailyTrendData(since time.Time) ([]DailyTrendData, error) {
	var trends []DailyTrendData

	err := ds.DB.Table("predictions").
		Select("DATE(timestamp) as date, " +
			"COUNT(*) as prediction_count, " +
			"SUM(total_calories) as total_calories, " +
			"AVG(total_calories) as avg_calories, " +
			"SUM(total_fats) as total_fats, " +
			"SUM(total_protein) as total_protein").
		Where("timestamp >= ?", since).
		Group("DATE(timestamp)").
		Order("date ASC").
		Scan(&trends).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("getting daily trend data: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	return trends, nil
}

// GetTopLabels retrieves the most frequently detected canonical labels across
// all detected items whose owning prediction falls within the trailing
// window. Ties are broken by lexicographic label order so the result is
// deterministic.
func (ds *DataStore) GetTopLabels(since time.Time, limit int) ([]LabelCount, error) {
	if limit <= 0 {
		return nil, errors.Newf("limit must be a positive integer, got %d", limit).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	var labels []LabelCount

	err := ds.DB.Table("detected_items").
		Select("detected_items.label_canonical, " +
			"COUNT(*) as count, " +
			"AVG(detected_items.confidence) as avg_confidence").
		Joins("JOIN predictions ON detected_items.prediction_id = predictions.id").
		Where("predictions.timestamp >= ?", since).
		Group("detected_items.label_canonical").
		Order("count DESC, detected_items.label_canonical ASC").
		Limit(limit).
		Scan(&labels).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("getting top labels: %w", err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	return labels, nil
}
