// internal/api/predictions.go
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/calorietrack/calorietrack-go/internal/errors"
	"github.com/calorietrack/calorietrack-go/internal/eventlog"
	"github.com/calorietrack/calorietrack-go/internal/nutrition"
)

// initPredictionRoutes registers all prediction-related API endpoints
func (c *Controller) initPredictionRoutes() {
	c.Group.POST("/predictions", c.SubmitPrediction)
	c.Group.GET("/predictions/recent", c.GetRecentPredictions)
	c.Group.GET("/predictions/:id", c.GetPrediction)
}

// SubmittedItem is one detected object in a submit request. Nutrition values
// may be omitted, in which case they are resolved from the lookup table.
type SubmittedItem struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box,omitempty"`
	Calories   *float64  `json:"calories,omitempty"`
	Fats       *float64  `json:"fats,omitempty"`
	Protein    *float64  `json:"protein,omitempty"`
}

// SubmitPredictionRequest is the body of a submit request
type SubmitPredictionRequest struct {
	SessionID        string          `json:"session_id,omitempty"`
	ProcessingTimeMs float64         `json:"processing_time_ms"`
	ImageSize        string          `json:"image_size,omitempty"`
	Items            []SubmittedItem `json:"items"`
}

// RecentPredictionsResponse wraps the recent prediction list
type RecentPredictionsResponse struct {
	Records []*eventlog.PredictionView `json:"records"`
	Limit   int                        `json:"limit"`
	Offset  int                        `json:"offset"`
}

// toDetectionResult translates submitted items into the detection boundary
// shape, resolving nutrition from the lookup table for items that arrive
// without resolved values.
func toDetectionResult(items []SubmittedItem) eventlog.DetectionResult {
	result := eventlog.DetectionResult{
		Items: make([]eventlog.DetectedObject, 0, len(items)),
	}
	for i := range items {
		submitted := &items[i]
		canonical := nutrition.Canonicalize(submitted.Label)
		food := nutrition.Resolve(submitted.Label)

		obj := eventlog.DetectedObject{
			Label:          submitted.Label,
			LabelCanonical: canonical,
			Confidence:     submitted.Confidence,
			Box:            submitted.Box,
			Calories:       food.Calories,
			Fats:           food.Fats,
			Protein:        food.Protein,
		}
		if submitted.Calories != nil {
			obj.Calories = *submitted.Calories
		}
		if submitted.Fats != nil {
			obj.Fats = *submitted.Fats
		}
		if submitted.Protein != nil {
			obj.Protein = *submitted.Protein
		}
		result.Items = append(result.Items, obj)
	}
	return result
}

// SubmitPrediction handles POST requests from the inference boundary. The
// completed detection result is persisted and broadcast to observers.
func (c *Controller) SubmitPrediction(ctx echo.Context) error {
	var req SubmitPredictionRequest
	if err := ctx.Bind(&req); err != nil {
		return c.HandleError(ctx,
			errors.New(err).Category(errors.CategoryValidation).Component("api").Build(),
			"Invalid request body", http.StatusBadRequest)
	}

	result := toDetectionResult(req.Items)

	view, err := c.EventLog.Record(result, req.SessionID, req.ProcessingTimeMs, req.ImageSize)
	if err != nil {
		// Validation maps to 400; a persistence fault is reported with an
		// explicit 500 and the inference collaborator decides whether its
		// own response is affected (it is not, logging is best-effort).
		return c.HandleError(ctx, err, "Failed to log prediction", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusCreated, view)
}

// GetRecentPredictions handles GET requests for the most recent predictions
func (c *Controller) GetRecentPredictions(ctx echo.Context) error {
	limit := c.Settings.Query.DefaultLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.HandleError(ctx,
				errors.Newf("invalid limit %q", raw).Category(errors.CategoryValidation).Component("api").Build(),
				"Invalid limit parameter", http.StatusBadRequest)
		}
		limit = parsed
	}
	if limit > c.Settings.Query.MaxLimit {
		limit = c.Settings.Query.MaxLimit
	}

	offset := 0
	if raw := ctx.QueryParam("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.HandleError(ctx,
				errors.Newf("invalid offset %q", raw).Category(errors.CategoryValidation).Component("api").Build(),
				"Invalid offset parameter", http.StatusBadRequest)
		}
		offset = parsed
	}

	predictions, err := c.DS.GetRecent(limit, offset)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get recent predictions", http.StatusInternalServerError)
	}

	records := make([]*eventlog.PredictionView, 0, len(predictions))
	for i := range predictions {
		records = append(records, eventlog.NewPredictionView(&predictions[i]))
	}

	return ctx.JSON(http.StatusOK, RecentPredictionsResponse{
		Records: records,
		Limit:   limit,
		Offset:  offset,
	})
}

// GetPrediction handles GET requests for a single prediction by ID
func (c *Controller) GetPrediction(ctx echo.Context) error {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		return c.HandleError(ctx,
			errors.Newf("invalid prediction id %q", ctx.Param("id")).Category(errors.CategoryValidation).Component("api").Build(),
			"Invalid prediction ID", http.StatusBadRequest)
	}

	prediction, err := c.DS.Get(uint(id))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to get prediction", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, eventlog.NewPredictionView(&prediction))
}
