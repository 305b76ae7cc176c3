// Package analytics computes windowed aggregate statistics over the
// prediction datastore. It is a pure read-side component and never mutates
// stored data.
package analytics

import (
	"time"

	"github.com/calorietrack/calorietrack-go/internal/datastore"
	"github.com/calorietrack/calorietrack-go/internal/errors"
)

// topLabelCount is the number of label frequency entries included in
// statistics results.
const topLabelCount = 10

// Statistics contains aggregate statistics for a trailing window
type Statistics struct {
	Count               int                    `json:"count"`
	AvgCalories         float64                `json:"avg_calories"`
	AvgProcessingTimeMs float64                `json:"avg_processing_time_ms"`
	TotalCalories       float64                `json:"total_calories_consumed"`
	MostFrequentLabel   string                 `json:"most_frequent_label"`
	TopLabels           []datastore.LabelCount `json:"top_labels,omitempty"`
}

// TrendPoint represents aggregated nutrition totals for one calendar date
type TrendPoint struct {
	Date            string  `json:"date"`
	TotalCalories   float64 `json:"total_calories"`
	PredictionCount int     `json:"prediction_count"`
	AvgCalories     float64 `json:"avg_calories"`
	TotalFats       float64 `json:"total_fats"`
	TotalProtein    float64 `json:"total_protein"`
}

// Summary pairs the weekly and monthly statistics views
type Summary struct {
	Weekly  Statistics `json:"weekly"`
	Monthly Statistics `json:"monthly"`
}

// Engine computes aggregates over a datastore
type Engine struct {
	ds datastore.Interface
}

// New creates a new aggregation engine backed by the given datastore.
func New(ds datastore.Interface) *Engine {
	return &Engine{ds: ds}
}

// windowStart returns the start instant of a trailing window of whole days.
func windowStart(days int) time.Time {
	return time.Now().AddDate(0, 0, -days)
}

// validateDays rejects non-positive window sizes before any query runs.
func validateDays(days int) error {
	if days <= 0 {
		return errors.Newf("days must be a positive integer, got %d", days).
			Component("analytics").
			Category(errors.CategoryValidation).
			Build()
	}
	return nil
}

// Statistics computes aggregate statistics for the trailing window of the
// given number of days. An empty window yields zero values, not an error.
func (e *Engine) Statistics(days int) (Statistics, error) {
	if err := validateDays(days); err != nil {
		return Statistics{}, err
	}

	since := windowStart(days)

	predictions, err := e.ds.GetPredictionsSince(since)
	if err != nil {
		return Statistics{}, err
	}

	stats := Statistics{Count: len(predictions)}
	if stats.Count == 0 {
		return stats, nil
	}

	var sumCalories, sumProcessing float64
	for i := range predictions {
		sumCalories += predictions[i].TotalCalories
		sumProcessing += predictions[i].ProcessingTimeMs
	}
	stats.TotalCalories = sumCalories
	stats.AvgCalories = sumCalories / float64(stats.Count)
	stats.AvgProcessingTimeMs = sumProcessing / float64(stats.Count)

	labels, err := e.ds.GetTopLabels(since, topLabelCount)
	if err != nil {
		return Statistics{}, err
	}
	stats.TopLabels = labels
	if len(labels) > 0 {
		stats.MostFrequentLabel = labels[0].LabelCanonical
	}

	return stats, nil
}

// Trends computes per-date nutrition aggregates for the trailing window.
// Dates with no activity are omitted from the series.
func (e *Engine) Trends(days int) ([]TrendPoint, error) {
	if err := validateDays(days); err != nil {
		return nil, err
	}

	daily, err := e.ds.GetDailyTrendData(windowStart(days))
	if err != nil {
		return nil, err
	}

	series := make([]TrendPoint, 0, len(daily))
	for i := range daily {
		series = append(series, TrendPoint{
			Date:            daily[i].Date,
			TotalCalories:   daily[i].TotalCalories,
			PredictionCount: daily[i].PredictionCount,
			AvgCalories:     daily[i].AvgCalories,
			TotalFats:       daily[i].TotalFats,
			TotalProtein:    daily[i].TotalProtein,
		})
	}
	return series, nil
}

// Summary composes the fixed weekly and monthly statistics views.
func (e *Engine) Summary() (Summary, error) {
	weekly, err := e.Statistics(7)
	if err != nil {
		return Summary{}, err
	}
	monthly, err := e.Statistics(30)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Weekly: weekly, Monthly: monthly}, nil
}
