// model.go this code defines the data model for the application
package datastore

import "time"

// Prediction represents a single logged inference event with its aggregate
// nutritional totals. Predictions are append-only; totals are derived from
// the associated DetectedItems at write time.
type Prediction struct {
	ID               uint      `gorm:"primaryKey"`
	Timestamp        time.Time `gorm:"index:idx_predictions_timestamp"`
	SessionID        string    `gorm:"index:idx_predictions_session"`
	TotalCalories    float64   `gorm:"check:total_calories >= 0"`
	TotalFats        float64   `gorm:"check:total_fats >= 0"`
	TotalProtein     float64   `gorm:"check:total_protein >= 0"`
	TotalItems       int       `gorm:"check:total_items >= 0"`
	ProcessingTimeMs float64
	ImageSize        string
	Items            []DetectedItem `gorm:"foreignKey:PredictionID;constraint:OnDelete:CASCADE"`
}

// DetectedItem represents one detected food object within a Prediction,
// with per-item nutrition and serialized bounding box geometry.
type DetectedItem struct {
	ID             uint    `gorm:"primaryKey"`
	PredictionID   uint    `gorm:"index:idx_items_prediction;not null"`
	Label          string  // raw detector class name
	LabelCanonical string  `gorm:"index:idx_items_label"`
	Confidence     float64 `gorm:"check:confidence >= 0 AND confidence <= 1"`
	Calories       float64 `gorm:"check:calories >= 0"`
	Fats           float64 `gorm:"check:fats >= 0"`
	Protein        float64 `gorm:"check:protein >= 0"`
	BoxCoordinates string  // serialized geometry, opaque to this subsystem
}

// Copy creates a deep copy of the DetectedItem struct
func (d DetectedItem) Copy() DetectedItem {
	return DetectedItem{
		ID:             d.ID,
		PredictionID:   d.PredictionID,
		Label:          d.Label,
		LabelCanonical: d.LabelCanonical,
		Confidence:     d.Confidence,
		Calories:       d.Calories,
		Fats:           d.Fats,
		Protein:        d.Protein,
		BoxCoordinates: d.BoxCoordinates,
	}
}
