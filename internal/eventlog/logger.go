package eventlog

import (
	"log/slog"

	"github.com/calorietrack/calorietrack-go/internal/broadcast"
	"github.com/calorietrack/calorietrack-go/internal/datastore"
	"github.com/calorietrack/calorietrack-go/internal/errors"
	"github.com/calorietrack/calorietrack-go/internal/logging"
	"github.com/calorietrack/calorietrack-go/internal/observability"
	"github.com/google/uuid"
)

// Logger receives completed prediction results from the inference boundary,
// persists them and notifies the broadcast hub. Persistence failures are
// surfaced to the caller; broadcast failures never are.
type Logger struct {
	ds      datastore.Interface
	hub     *broadcast.Hub
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates a new event logger. metrics may be nil.
func New(ds datastore.Interface, hub *broadcast.Hub, metrics *observability.Metrics) *Logger {
	return &Logger{
		ds:      ds,
		hub:     hub,
		metrics: metrics,
		logger:  logging.ForService("eventlog"),
	}
}

// validateResult rejects malformed event data before any persistence attempt.
func validateResult(result *DetectionResult, processingTimeMs float64) error {
	if processingTimeMs < 0 {
		return errors.Newf("processing time must not be negative, got %f", processingTimeMs).
			Component("eventlog").
			Category(errors.CategoryValidation).
			Build()
	}
	for i := range result.Items {
		item := &result.Items[i]
		if item.Confidence < 0 || item.Confidence > 1 {
			return errors.Newf("item %q confidence %f outside [0,1]", item.Label, item.Confidence).
				Component("eventlog").
				Category(errors.CategoryValidation).
				Build()
		}
		if item.Calories < 0 || item.Fats < 0 || item.Protein < 0 {
			return errors.Newf("item %q has negative nutrition values", item.Label).
				Component("eventlog").
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}

// Record translates a detection result into a prediction record with its
// detected items, persists both atomically and, on success, publishes a
// new_prediction event to all observers. It returns the stored view.
//
// Broadcast is only attempted after a successful commit. Per-observer
// delivery failures are absorbed by the hub and never surface here.
func (l *Logger) Record(result DetectionResult, sessionID string, processingTimeMs float64, imageSize string) (*PredictionView, error) {
	if err := validateResult(&result, processingTimeMs); err != nil {
		return nil, err
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	prediction := datastore.Prediction{
		SessionID:        sessionID,
		ProcessingTimeMs: processingTimeMs,
		ImageSize:        imageSize,
	}

	items := make([]datastore.DetectedItem, 0, len(result.Items))
	for i := range result.Items {
		obj := &result.Items[i]
		prediction.TotalCalories += obj.Calories
		prediction.TotalFats += obj.Fats
		prediction.TotalProtein += obj.Protein
		items = append(items, datastore.DetectedItem{
			Label:          obj.Label,
			LabelCanonical: obj.LabelCanonical,
			Confidence:     obj.Confidence,
			Calories:       obj.Calories,
			Fats:           obj.Fats,
			Protein:        obj.Protein,
			BoxCoordinates: serializeBox(obj.Box),
		})
	}

	if err := l.ds.Save(&prediction, items); err != nil {
		l.metrics.RecordPredictionFailure("persistence")
		l.logger.Error("failed to persist prediction",
			"session_id", sessionID,
			"items", len(items),
			"error", err,
		)
		return nil, err
	}

	l.metrics.RecordPredictionLogged(processingTimeMs)
	l.logger.Info("logged prediction",
		"prediction_id", prediction.ID,
		"session_id", sessionID,
		"items", prediction.TotalItems,
		"total_calories", prediction.TotalCalories,
	)

	view := NewPredictionView(&prediction)
	l.hub.Publish(broadcast.NewPredictionEvent(view))
	l.metrics.RecordBroadcast()
	l.metrics.SetObserverCount(l.hub.NumSubscribers())

	return view, nil
}
