// Package main runs the dashboard view API against an in-process fake of the
// sentiment API, for browser tests that need deterministic data.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sentiment-dashboard/config"
	"sentiment-dashboard/e2e/mocks"
	"sentiment-dashboard/internal/api"
	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/observability"
)

func main() {
	// Initialize logger in development mode for tests
	observability.InitLogger(false)
	metrics := observability.InitMetrics()

	port := os.Getenv("E2E_SERVER_PORT")
	if port == "" {
		port = "9090"
	}

	upstream := mocks.NewMockServer()
	defer upstream.Close()
	observability.Info("fake sentiment API started", "url", upstream.URL())

	cfg := config.NewTestConfig()
	cfg.SentimentAPI.BaseURL = upstream.URL()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, app.NewGateway(cfg, metrics), metrics)
	application.Startup(ctx)

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg, metrics, nil)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		observability.Info("starting E2E test server", "port", port, "url", fmt.Sprintf("http://localhost:%s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	observability.Info("shutting down E2E test server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}

	application.Shutdown(shutdownCtx)
	observability.Info("E2E test server stopped")
}
