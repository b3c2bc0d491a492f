package app

import (
	"context"
	"fmt"
	"time"

	"sentiment-dashboard/models"
	"sentiment-dashboard/observability"
)

// Health statuses
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// RefreshReddit asks the upstream to scrape Reddit.
func (a *App) RefreshReddit(ctx context.Context) (*models.ScrapeAck, error) {
	ack, err := a.gateway.TriggerRedditScrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("trigger reddit scrape: %w", err)
	}
	observability.Info("reddit scrape triggered", "total_found", ack.TotalFound)
	return ack, nil
}

// RefreshNews asks the upstream to scrape news sources.
func (a *App) RefreshNews(ctx context.Context) (*models.ScrapeAck, error) {
	ack, err := a.gateway.TriggerNewsScrape(ctx)
	if err != nil {
		return nil, fmt.Errorf("trigger news scrape: %w", err)
	}
	observability.Info("news scrape triggered", "total_found", ack.TotalFound)
	return ack, nil
}

// RefreshAggregate asks the upstream to recompute daily aggregates and
// leaderboards.
func (a *App) RefreshAggregate(ctx context.Context) (*models.AggregateAck, error) {
	ack, err := a.gateway.TriggerAggregation(ctx)
	if err != nil {
		return nil, fmt.Errorf("trigger aggregation: %w", err)
	}
	observability.Info("aggregation triggered",
		"stocks_processed", ack.StocksProcessed,
		"bullish", ack.BullishStocks,
		"bearish", ack.BearishStocks)
	return ack, nil
}

// Health reports upstream liveness. The app itself is always up; a dead
// upstream only degrades it. Results are reused for the configured cache TTL.
func (a *App) Health(ctx context.Context) HealthView {
	up := a.health.check(ctx, a.gateway.HealthCheck)
	view := HealthView{
		Status:   HealthOK,
		Upstream: up,
		Time:     time.Now().UTC(),
	}
	if !up {
		view.Status = HealthDegraded
	}
	if r, ok := a.gateway.(breakerReporter); ok && r.Breakers() != nil {
		view.Breakers = r.Breakers().Status()
	}
	return view
}
