// internal/api/api.go
package api

import (
	"crypto/rand"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/calorietrack/calorietrack-go/internal/analytics"
	"github.com/calorietrack/calorietrack-go/internal/broadcast"
	"github.com/calorietrack/calorietrack-go/internal/conf"
	"github.com/calorietrack/calorietrack-go/internal/datastore"
	"github.com/calorietrack/calorietrack-go/internal/errors"
	"github.com/calorietrack/calorietrack-go/internal/eventlog"
	"github.com/calorietrack/calorietrack-go/internal/logging"
	"github.com/calorietrack/calorietrack-go/internal/observability"
)

// Controller manages the API routes and handlers
type Controller struct {
	Echo      *echo.Echo
	Group     *echo.Group
	DS        datastore.Interface
	Settings  *conf.Settings
	EventLog  *eventlog.Logger
	Analytics *analytics.Engine
	Hub       *broadcast.Hub
	Metrics   *observability.Metrics

	logger         *log.Logger
	apiLogger      *slog.Logger // Structured logger for API operations
	apiLoggerClose func() error // Function to close the log file

	analyticsCache *cache.Cache // Cache for analytics query responses
	startTime      time.Time
}

// New creates a new API controller and registers all routes.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	eventLog *eventlog.Logger, engine *analytics.Engine, hub *broadcast.Hub,
	metrics *observability.Metrics, logger *log.Logger) (*Controller, error) {

	if logger == nil {
		logger = log.Default()
	}

	cacheTTL := time.Duration(settings.Query.CacheTTL) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	c := &Controller{
		Echo:           e,
		DS:             ds,
		Settings:       settings,
		EventLog:       eventLog,
		Analytics:      engine,
		Hub:            hub,
		Metrics:        metrics,
		logger:         logger,
		analyticsCache: cache.New(cacheTTL, 2*cacheTTL),
		startTime:      time.Now(),
	}

	// Initialize structured logger for API requests
	if settings.WebServer.Log.Enabled {
		apiLogger, closeFunc, err := logging.NewFileLogger(settings.WebServer.Log.Path, "api", slog.LevelInfo)
		if err != nil {
			logger.Printf("Warning: Failed to initialize API structured logger: %v", err)
			fbHandler := slog.NewJSONHandler(io.Discard, nil)
			c.apiLogger = slog.New(fbHandler).With("service", "api")
			c.apiLoggerClose = func() error { return nil }
		} else {
			c.apiLogger = apiLogger
			c.apiLoggerClose = closeFunc
		}
	} else {
		c.apiLogger = logging.ForService("api")
		c.apiLoggerClose = func() error { return nil }
	}

	// Create v1 API group
	c.Group = e.Group("/api/v1")

	// Configure middlewares
	c.Group.Use(middleware.Recover())
	c.Group.Use(middleware.CORS())
	c.Group.Use(middleware.BodyLimit("1M")) // Limit request body to 1MB to prevent DoS attacks
	c.Group.Use(c.LoggingMiddleware())

	c.initRoutes()

	return c, nil
}

// LoggingMiddleware creates a middleware function that logs API requests
func (c *Controller) LoggingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()

			err := next(ctx)

			if c.apiLogger == nil {
				return err
			}

			req := ctx.Request()
			res := ctx.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.String("query", req.URL.RawQuery),
				slog.Int("status", res.Status),
				slog.String("ip", ctx.RealIP()),
				slog.String("user_agent", req.UserAgent()),
				slog.Int64("latency_ms", time.Since(start).Milliseconds()),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}

			c.apiLogger.LogAttrs(ctx.Request().Context(), slog.LevelInfo, "API Request", attrs...)

			return err
		}
	}
}

// initRoutes registers all API endpoints
func (c *Controller) initRoutes() {
	// Health check endpoint - publicly accessible
	c.Group.GET("/health", c.HealthCheck)

	c.initPredictionRoutes()
	c.initAnalyticsRoutes()
	c.initStreamRoutes()

	// Prometheus metrics on the echo root, outside the API group
	if c.Metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.Metrics.Handler()))
	}
}

// HealthCheck handles the API health check endpoint
func (c *Controller) HealthCheck(ctx echo.Context) error {
	response := map[string]any{
		"status":    "healthy",
		"version":   c.Settings.Version,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	// Check database connectivity with a cheap read
	dbStatus := "connected"
	if _, err := c.DS.GetRecent(1, 0); err != nil {
		dbStatus = "disconnected"
		response["status"] = "degraded"
		response["database_error"] = err.Error()
	}
	response["database_status"] = dbStatus

	uptime := time.Since(c.startTime)
	response["uptime"] = uptime.String()
	response["uptime_seconds"] = uptime.Seconds()
	response["observers"] = c.Hub.NumSubscribers()

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown performs cleanup of resources used by the API controller
func (c *Controller) Shutdown() {
	if c.apiLoggerClose != nil {
		if err := c.apiLoggerClose(); err != nil {
			c.logger.Printf("Error closing API log file: %v", err)
		}
	}
	if c.analyticsCache != nil {
		c.analyticsCache.Flush()
	}
}

// ErrorResponse is the error body returned by all handlers
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	correlationID := generateCorrelationID()

	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: correlationID,
	}
}

// generateCorrelationID creates a unique identifier for error tracking
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}

	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an appropriate error response. The HTTP
// status is derived from the error category: validation errors map to 400,
// not-found to 404, everything else to the supplied fallback code.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, fallbackCode int) error {
	code := fallbackCode
	switch {
	case errors.IsValidation(err):
		code = http.StatusBadRequest
	case errors.NotFound(err):
		code = http.StatusNotFound
	}

	errorResp := NewErrorResponse(err, message, code)

	c.logger.Printf("API Error [%s] from %s: %s: %v",
		errorResp.CorrelationID, ctx.RealIP(), message, err)

	if c.apiLogger != nil {
		c.apiLogger.Error("API Error",
			"correlation_id", errorResp.CorrelationID,
			"message", message,
			"error", errorResp.Error,
			"code", code,
			"path", ctx.Request().URL.Path,
			"method", ctx.Request().Method,
			"ip", ctx.RealIP(),
		)
	}

	return ctx.JSON(code, errorResp)
}

// Debug logs debug messages when debug mode is enabled
func (c *Controller) Debug(format string, v ...any) {
	if c.Settings.WebServer.Debug {
		msg := fmt.Sprintf(format, v...)
		c.logger.Printf("[DEBUG] %s", msg)

		if c.apiLogger != nil {
			c.apiLogger.Debug(msg)
		}
	}
}
