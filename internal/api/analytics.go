// internal/api/analytics.go
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/calorietrack/calorietrack-go/internal/errors"
)

// initAnalyticsRoutes registers the aggregation endpoints
func (c *Controller) initAnalyticsRoutes() {
	c.Group.GET("/analytics/statistics", c.GetStatistics)
	c.Group.GET("/analytics/trends", c.GetTrends)
	c.Group.GET("/analytics/summary", c.GetSummary)
}

// parseDays reads the "days" query parameter with a fallback default.
// Range validation is left to the aggregation engine.
func parseDays(ctx echo.Context, defaultDays int) (int, error) {
	raw := ctx.QueryParam("days")
	if raw == "" {
		return defaultDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Newf("invalid days %q", raw).
			Category(errors.CategoryValidation).
			Component("api").
			Build()
	}
	return days, nil
}

// GetStatistics handles GET requests for windowed prediction statistics
func (c *Controller) GetStatistics(ctx echo.Context) error {
	days, err := parseDays(ctx, 7)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid days parameter", http.StatusBadRequest)
	}

	cacheKey := fmt.Sprintf("statistics:%d", days)
	if cached, found := c.analyticsCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	stats, err := c.Analytics.Statistics(days)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute statistics", http.StatusInternalServerError)
	}

	c.analyticsCache.SetDefault(cacheKey, stats)
	return ctx.JSON(http.StatusOK, stats)
}

// GetTrends handles GET requests for per-day aggregation trends
func (c *Controller) GetTrends(ctx echo.Context) error {
	days, err := parseDays(ctx, 30)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid days parameter", http.StatusBadRequest)
	}

	cacheKey := fmt.Sprintf("trends:%d", days)
	if cached, found := c.analyticsCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	trends, err := c.Analytics.Trends(days)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute trends", http.StatusInternalServerError)
	}

	c.analyticsCache.SetDefault(cacheKey, trends)
	return ctx.JSON(http.StatusOK, trends)
}

// GetSummary handles GET requests for the combined weekly and monthly view
func (c *Controller) GetSummary(ctx echo.Context) error {
	const cacheKey = "summary"
	if cached, found := c.analyticsCache.Get(cacheKey); found {
		return ctx.JSON(http.StatusOK, cached)
	}

	summary, err := c.Analytics.Summary()
	if err != nil {
		return c.HandleError(ctx, err, "Failed to compute summary", http.StatusInternalServerError)
	}

	c.analyticsCache.SetDefault(cacheKey, summary)
	return ctx.JSON(http.StatusOK, summary)
}
