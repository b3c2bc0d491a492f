package services

import (
	"context"

	"sentiment-dashboard/models"
)

// SentimentGateway defines the read, trigger and liveness operations against the sentiment API
type SentimentGateway interface {
	FetchDashboard(ctx context.Context) (*models.DashboardData, error)
	FetchStockDetail(ctx context.Context, ticker string) (*models.StockDetailData, error)
	FetchSentimentHistory(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error)
	FetchStockMentions(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error)

	TriggerRedditScrape(ctx context.Context) (*models.ScrapeAck, error)
	TriggerNewsScrape(ctx context.Context) (*models.ScrapeAck, error)
	TriggerAggregation(ctx context.Context) (*models.AggregateAck, error)

	HealthCheck(ctx context.Context) bool
}

// Compile-time interface verification
var _ SentimentGateway = (*SentimentAPIService)(nil)
