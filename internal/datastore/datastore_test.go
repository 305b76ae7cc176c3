package datastore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calorietrack/calorietrack-go/internal/conf"
	"github.com/calorietrack/calorietrack-go/internal/errors"
)

// newTestStore opens a SQLite datastore backed by a per-test temporary file.
func newTestStore(t *testing.T) Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "test.db")

	store := New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func savePrediction(t *testing.T, store Interface, ts time.Time, items []DetectedItem) *Prediction {
	t.Helper()

	prediction := &Prediction{
		Timestamp:        ts,
		SessionID:        "test-session",
		ProcessingTimeMs: 42.5,
		ImageSize:        "640x480",
	}
	for i := range items {
		prediction.TotalCalories += items[i].Calories
		prediction.TotalFats += items[i].Fats
		prediction.TotalProtein += items[i].Protein
	}
	require.NoError(t, store.Save(prediction, items))
	return prediction
}

func TestSaveAndGet(t *testing.T) {
	store := newTestStore(t)

	items := []DetectedItem{
		{Label: "Apple", LabelCanonical: "apple", Confidence: 0.72, Calories: 95, Fats: 0.3, Protein: 0.5},
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.91, Calories: 285, Fats: 10.4, Protein: 12.2},
	}
	saved := savePrediction(t, store, time.Now(), items)
	require.NotZero(t, saved.ID)
	assert.Equal(t, 2, saved.TotalItems)

	got, err := store.Get(saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "test-session", got.SessionID)
	assert.InDelta(t, 380.0, got.TotalCalories, 0.001)
	require.Len(t, got.Items, 2)

	// Items come back ordered by confidence, highest first
	assert.Equal(t, "pizza", got.Items[0].LabelCanonical)
	assert.Equal(t, "apple", got.Items[1].LabelCanonical)
	for _, item := range got.Items {
		assert.Equal(t, saved.ID, item.PredictionID)
	}
}

func TestGetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(9999)
	require.Error(t, err)
	assert.True(t, errors.NotFound(err))
}

func TestSaveRollsBackOnItemFailure(t *testing.T) {
	store := newTestStore(t)

	// The second item violates the confidence range constraint, so the
	// whole transaction must roll back leaving no parent row behind.
	items := []DetectedItem{
		{Label: "Apple", LabelCanonical: "apple", Confidence: 0.8, Calories: 95},
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 1.5, Calories: 285},
	}
	prediction := &Prediction{Timestamp: time.Now(), SessionID: "rollback-session"}
	err := store.Save(prediction, items)
	require.Error(t, err)

	count, err := store.CountSince(time.Now().AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetRecent(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		savePrediction(t, store, base.Add(time.Duration(i)*time.Minute), []DetectedItem{
			{Label: "Apple", LabelCanonical: "apple", Confidence: 0.7, Calories: 95},
		})
	}

	recent, err := store.GetRecent(3, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Most recent first
	assert.True(t, recent[0].Timestamp.After(recent[1].Timestamp))
	assert.True(t, recent[1].Timestamp.After(recent[2].Timestamp))

	// Items are eagerly loaded
	require.Len(t, recent[0].Items, 1)

	// Offset pages past the newest records
	page, err := store.GetRecent(3, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestGetRecentRejectsInvalidArguments(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRecent(0, 0)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = store.GetRecent(10, -1)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGetPredictionsSince(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	savePrediction(t, store, now.AddDate(0, 0, -10), []DetectedItem{
		{Label: "Donut", LabelCanonical: "donut", Confidence: 0.9, Calories: 195},
	})
	savePrediction(t, store, now.Add(-time.Hour), []DetectedItem{
		{Label: "Apple", LabelCanonical: "apple", Confidence: 0.8, Calories: 95},
	})

	predictions, err := store.GetPredictionsSince(now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, predictions, 1)
	assert.InDelta(t, 95.0, predictions[0].TotalCalories, 0.001)

	count, err := store.CountSince(now.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestGetDailyTrendData(t *testing.T) {
	store := newTestStore(t)
	day := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	savePrediction(t, store, day, []DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.9, Calories: 550, Fats: 20, Protein: 24},
	})
	savePrediction(t, store, day.Add(2*time.Hour), []DetectedItem{
		{Label: "Salad", LabelCanonical: "salad", Confidence: 0.8, Calories: 300, Fats: 14, Protein: 8},
	})

	trends, err := store.GetDailyTrendData(day.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, trends, 1)

	assert.Equal(t, "2026-08-20", trends[0].Date)
	assert.EqualValues(t, 2, trends[0].PredictionCount)
	assert.InDelta(t, 850.0, trends[0].TotalCalories, 0.001)
	assert.InDelta(t, 425.0, trends[0].AvgCalories, 0.001)
	assert.InDelta(t, 34.0, trends[0].TotalFats, 0.001)
	assert.InDelta(t, 32.0, trends[0].TotalProtein, 0.001)
}

func TestGetTopLabels(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	savePrediction(t, store, now, []DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.9, Calories: 285},
		{Label: "Apple", LabelCanonical: "apple", Confidence: 0.8, Calories: 95},
	})
	savePrediction(t, store, now, []DetectedItem{
		{Label: "Pizza", LabelCanonical: "pizza", Confidence: 0.7, Calories: 285},
	})

	labels, err := store.GetTopLabels(now.AddDate(0, 0, -1), 10)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	assert.Equal(t, "pizza", labels[0].LabelCanonical)
	assert.EqualValues(t, 2, labels[0].Count)
	assert.Equal(t, "apple", labels[1].LabelCanonical)

	_, err = store.GetTopLabels(now, 0)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestGetTopLabelsTieBreak(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	savePrediction(t, store, now, []DetectedItem{
		{Label: "Rice", LabelCanonical: "rice", Confidence: 0.9, Calories: 206},
		{Label: "Dosa", LabelCanonical: "dosa", Confidence: 0.8, Calories: 133},
	})

	labels, err := store.GetTopLabels(now.AddDate(0, 0, -1), 10)
	require.NoError(t, err)
	require.Len(t, labels, 2)

	// Equal counts resolve alphabetically
	assert.Equal(t, "dosa", labels[0].LabelCanonical)
	assert.Equal(t, "rice", labels[1].LabelCanonical)
}
