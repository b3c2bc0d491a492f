// Package main runs the sentiment dashboard view API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"sentiment-dashboard/config"
	"sentiment-dashboard/internal/api"
	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/observability"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.InitLogger(false)
		observability.Fatal("invalid configuration", "error", err)
	}

	observability.InitLoggerWithLevel(cfg.Logging.Production, observability.ParseLevel(cfg.Logging.Level))
	metrics := observability.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway := app.NewGateway(cfg, metrics)
	application := app.New(cfg, gateway, metrics)
	application.Startup(ctx)

	if !gateway.HealthCheck(ctx) {
		observability.Warn("sentiment API is not reachable, views will fail until it is", "url", gateway.BaseURL())
	}

	handler := api.NewHandler(application, cfg)
	router := api.NewRouter(handler, cfg, metrics, nil)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 5*time.Second,
	}

	go func() {
		observability.Info("starting dashboard server",
			"addr", addr,
			"upstream", gateway.BaseURL(),
			"category_source", cfg.Leaderboard.CategorySource,
			"bearish_order", cfg.Leaderboard.BearishOrder)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	observability.Info("shutting down dashboard server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	application.Shutdown(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}
	observability.Info("dashboard server stopped")
}
