// Package eventlog orchestrates the capture of prediction events: it
// translates raw detection results into durable records, persists them and
// notifies live observers.
package eventlog

import (
	"encoding/json"
	"time"

	"github.com/calorietrack/calorietrack-go/internal/datastore"
)

// DetectedObject is one detected food object as delivered by the inference
// boundary, with nutrition already resolved by the lookup collaborator.
type DetectedObject struct {
	Label          string    `json:"label"`
	LabelCanonical string    `json:"label_canonical"`
	Confidence     float64   `json:"confidence"`
	Box            []float64 `json:"box,omitempty"`
	Calories       float64   `json:"calories"`
	Fats           float64   `json:"fats"`
	Protein        float64   `json:"protein"`
}

// DetectionResult is the complete output of one inference call.
type DetectionResult struct {
	Items []DetectedObject `json:"items"`
}

// ItemView is the fixed structured view of a stored detected item.
type ItemView struct {
	ID             uint      `json:"id"`
	Label          string    `json:"label"`
	LabelCanonical string    `json:"label_canonical"`
	Confidence     float64   `json:"confidence"`
	Calories       float64   `json:"calories"`
	Fats           float64   `json:"fats"`
	Protein        float64   `json:"protein"`
	Box            []float64 `json:"box,omitempty"`
}

// PredictionView is the fixed structured view of a stored prediction and its
// items. This is the shape returned to the submitting caller and carried in
// broadcast events; no untyped payloads cross the boundary.
type PredictionView struct {
	ID               uint       `json:"id"`
	Timestamp        time.Time  `json:"timestamp"`
	SessionID        string     `json:"session_id"`
	TotalCalories    float64    `json:"total_calories"`
	TotalFats        float64    `json:"total_fats"`
	TotalProtein     float64    `json:"total_protein"`
	TotalItems       int        `json:"total_items"`
	ProcessingTimeMs float64    `json:"processing_time_ms"`
	ImageSize        string     `json:"image_size,omitempty"`
	Items            []ItemView `json:"items"`
}

// NewPredictionView builds the wire view from a stored prediction.
func NewPredictionView(p *datastore.Prediction) *PredictionView {
	view := &PredictionView{
		ID:               p.ID,
		Timestamp:        p.Timestamp,
		SessionID:        p.SessionID,
		TotalCalories:    p.TotalCalories,
		TotalFats:        p.TotalFats,
		TotalProtein:     p.TotalProtein,
		TotalItems:       p.TotalItems,
		ProcessingTimeMs: p.ProcessingTimeMs,
		ImageSize:        p.ImageSize,
		Items:            make([]ItemView, 0, len(p.Items)),
	}
	for i := range p.Items {
		item := &p.Items[i]
		view.Items = append(view.Items, ItemView{
			ID:             item.ID,
			Label:          item.Label,
			LabelCanonical: item.LabelCanonical,
			Confidence:     item.Confidence,
			Calories:       item.Calories,
			Fats:           item.Fats,
			Protein:        item.Protein,
			Box:            parseBox(item.BoxCoordinates),
		})
	}
	return view
}

// serializeBox encodes bounding box geometry for storage. The geometry is
// opaque to this subsystem and passed through unchanged.
func serializeBox(box []float64) string {
	if len(box) == 0 {
		return ""
	}
	data, err := json.Marshal(box)
	if err != nil {
		return ""
	}
	return string(data)
}

// parseBox decodes stored bounding box geometry.
func parseBox(coordinates string) []float64 {
	if coordinates == "" {
		return nil
	}
	var box []float64
	if err := json.Unmarshal([]byte(coordinates), &box); err != nil {
		return nil
	}
	return box
}
