package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calorietrack/calorietrack-go/internal/conf"
	"github.com/calorietrack/calorietrack-go/internal/datastore"
	"github.com/calorietrack/calorietrack-go/internal/errors"
)

func newTestEngine(t *testing.T) (*Engine, datastore.Interface) {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	return New(store), store
}

func seedPrediction(t *testing.T, store datastore.Interface, ts time.Time, processingMs float64, items []datastore.DetectedItem) {
	t.Helper()

	prediction := &datastore.Prediction{
		Timestamp:        ts,
		SessionID:        "seed",
		ProcessingTimeMs: processingMs,
	}
	for i := range items {
		prediction.TotalCalories += items[i].Calories
		prediction.TotalFats += items[i].Fats
		prediction.TotalProtein += items[i].Protein
	}
	require.NoError(t, store.Save(prediction, items))
}

func TestStatisticsEmptyWindow(t *testing.T) {
	engine, _ := newTestEngine(t)

	stats, err := engine.Statistics(7)
	require.NoError(t, err)

	assert.Zero(t, stats.Count)
	assert.Zero(t, stats.TotalCalories)
	assert.Zero(t, stats.AvgCalories)
	assert.Zero(t, stats.AvgProcessingTimeMs)
	assert.Empty(t, stats.MostFrequentLabel)
}

func TestStatisticsRejectsInvalidWindow(t *testing.T) {
	engine, _ := newTestEngine(t)

	for _, days := range []int{0, -1} {
		_, err := engine.Statistics(days)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))

		_, err = engine.Trends(days)
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	}
}

func TestStatisticsAggregatesWindow(t *testing.T) {
	engine, store := newTestEngine(t)
	now := time.Now()

	seedPrediction(t, store, now.Add(-time.Hour), 40, []datastore.DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.9, Calories: 285},
	})
	seedPrediction(t, store, now.Add(-2*time.Hour), 60, []datastore.DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.8, Calories: 285},
		{Label: "Apple", LabelCanonical: "apple", Confidence: 0.7, Calories: 95},
	})

	// Outside the 7 day window, must not be counted
	seedPrediction(t, store, now.AddDate(0, 0, -10), 500, []datastore.DetectedItem{
		{Label: "Donut", LabelCanonical: "donut", Confidence: 0.9, Calories: 195},
	})

	stats, err := engine.Statistics(7)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Count)
	assert.InDelta(t, 665.0, stats.TotalCalories, 0.001)
	assert.InDelta(t, 332.5, stats.AvgCalories, 0.001)
	assert.InDelta(t, 50.0, stats.AvgProcessingTimeMs, 0.001)
	assert.Equal(t, "pizza", stats.MostFrequentLabel)
	require.NotEmpty(t, stats.TopLabels)
	assert.Equal(t, "pizza", stats.TopLabels[0].LabelCanonical)
	assert.EqualValues(t, 2, stats.TopLabels[0].Count)
}

func TestTrends(t *testing.T) {
	engine, store := newTestEngine(t)
	now := time.Now()

	seedPrediction(t, store, now.Add(-time.Hour), 40, []datastore.DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.9, Calories: 550, Fats: 20, Protein: 24},
	})
	seedPrediction(t, store, now.Add(-30*time.Minute), 50, []datastore.DetectedItem{
		{Label: "Salad", LabelCanonical: "salad", Confidence: 0.8, Calories: 300, Fats: 14, Protein: 8},
	})

	trends, err := engine.Trends(30)
	require.NoError(t, err)
	require.NotEmpty(t, trends)

	var total float64
	var count int
	for _, point := range trends {
		total += point.TotalCalories
		count += point.PredictionCount
		assert.NotEmpty(t, point.Date)
	}
	assert.InDelta(t, 850.0, total, 0.001)
	assert.EqualValues(t, 2, count)
}

func TestSummary(t *testing.T) {
	engine, store := newTestEngine(t)
	now := time.Now()

	// One recent prediction and one only visible in the monthly window
	seedPrediction(t, store, now.Add(-time.Hour), 40, []datastore.DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.9, Calories: 285},
	})
	seedPrediction(t, store, now.AddDate(0, 0, -14), 60, []datastore.DetectedItem{
		{Label: "Apple", LabelCanonical: "apple", Confidence: 0.7, Calories: 95},
	})

	summary, err := engine.Summary()
	require.NoError(t, err)

	assert.EqualValues(t, 1, summary.Weekly.Count)
	assert.EqualValues(t, 2, summary.Monthly.Count)
	assert.InDelta(t, 285.0, summary.Weekly.TotalCalories, 0.001)
	assert.InDelta(t, 380.0, summary.Monthly.TotalCalories, 0.001)
}
