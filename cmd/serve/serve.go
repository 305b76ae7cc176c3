// Package serve implements the HTTP service command.
package serve

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/calorietrack/calorietrack-go/internal/analytics"
	"github.com/calorietrack/calorietrack-go/internal/api"
	"github.com/calorietrack/calorietrack-go/internal/broadcast"
	"github.com/calorietrack/calorietrack-go/internal/conf"
	"github.com/calorietrack/calorietrack-go/internal/datastore"
	"github.com/calorietrack/calorietrack-go/internal/eventlog"
	"github.com/calorietrack/calorietrack-go/internal/logging"
	"github.com/calorietrack/calorietrack-go/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve subcommand
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the prediction logging service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}
}

func runServer(settings *conf.Settings) error {
	logging.Init()
	if settings.Debug {
		logging.SetLevel(slog.LevelDebug)
	}
	serviceLogger := logging.ForService("serve")

	// Open the datastore and run migrations
	store := datastore.New(settings)
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer closeStore(store, serviceLogger)

	// Wire the core components
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	hub := broadcast.NewHub(settings.Broadcast.QueueSize)
	engine := analytics.New(store)
	eventLogger := eventlog.New(store, hub, metrics)

	// Set up the HTTP server
	e := echo.New()
	e.HideBanner = true

	controller, err := api.New(e, store, settings, eventLogger, engine, hub, metrics,
		log.New(os.Stderr, "api: ", log.LstdFlags))
	if err != nil {
		return fmt.Errorf("failed to initialize API controller: %w", err)
	}
	defer controller.Shutdown()

	addr := fmt.Sprintf("%s:%s", settings.WebServer.Host, settings.WebServer.Port)
	errCh := make(chan error, 1)
	go func() {
		serviceLogger.Info("starting HTTP server", "addr", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Block until the server fails or a termination signal arrives
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case sig := <-quit:
		serviceLogger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		serviceLogger.Error("HTTP server shutdown failed", "error", err)
	}
	hub.Shutdown()

	return nil
}

func closeStore(store datastore.Interface, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("failed to close datastore", "error", err)
	}
}
