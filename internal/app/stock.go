package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"sentiment-dashboard/models"
	"sentiment-dashboard/observability"
	"sentiment-dashboard/services"
	"sentiment-dashboard/trending"
)

const (
	viewStock    = "stock"
	viewHistory  = "history"
	viewMentions = "mentions"
)

// LoadStockDetail loads a ticker's current sentiment, history and recent
// mentions concurrently. The first failure cancels the other fetches and
// fails the whole load; partial data is discarded.
func (a *App) LoadStockDetail(ctx context.Context, ticker string) (*StockView, error) {
	timer := a.newTimer()
	ticker, err := services.NormalizeTicker(ticker)
	if err != nil {
		a.recordView(viewStock, statusError, timer)
		return nil, err
	}

	ctx, done, err := a.begin(ctx, "stock:"+ticker)
	if err != nil {
		return nil, err
	}
	defer done()

	log := observability.WithTicker(ticker)
	days := a.cfg.SentimentAPI.HistoryDays
	limit := a.cfg.SentimentAPI.DetailMentionsLimit

	var (
		detail   *models.StockDetailData
		history  *models.SentimentHistoryData
		mentions *models.StockMentionsData
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail, err = a.gateway.FetchStockDetail(gctx, ticker)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = a.gateway.FetchSentimentHistory(gctx, ticker, days)
		return err
	})
	g.Go(func() error {
		var err error
		mentions, err = a.gateway.FetchStockMentions(gctx, ticker, limit)
		return err
	})

	err = g.Wait()
	if cause := interrupted(ctx); cause != nil {
		a.recordView(viewStock, statusSuperseded, timer)
		return nil, fmt.Errorf("load stock %s: %w", ticker, cause)
	}
	if callerGone(ctx, err) {
		a.recordView(viewStock, statusCancelled, timer)
		return nil, fmt.Errorf("load stock %s: %w", ticker, err)
	}
	if err != nil {
		a.upstreamFailed(err)
		log.Warn("stock load failed", "error", err)
		a.recordView(viewStock, statusError, timer)
		return nil, fmt.Errorf("load stock %s: %w", ticker, err)
	}

	current := detail.CurrentSentiment
	tone := trending.ToneOf(current.SentimentIndex)
	view := &StockView{
		Ticker:   ticker,
		Headline: trending.HeadlineLabel(current.SentimentIndex),
		Tone:     tone,
		Color:    tone.Color(),
		Current:  current,
		Stats:    newStockStats(current),
		History:  newHistoryView(ticker, days, history.History),
		Mentions: newMentionCards(mentions.Mentions),
	}
	view.Issues = append(view.Issues, current.Issues()...)
	view.Issues = append(view.Issues, view.History.Issues...)
	view.Issues = append(view.Issues, mentionIssues(mentions.Mentions)...)
	a.reportIssues(viewStock, view.Issues)

	log.Debug("stock view loaded",
		"history_points", len(view.History.Points),
		"mentions", len(view.Mentions))
	a.recordView(viewStock, statusSuccess, timer)
	return view, nil
}

// LoadHistory loads a chart-ready sentiment history. days <= 0 uses the
// configured default.
func (a *App) LoadHistory(ctx context.Context, ticker string, days int) (*HistoryView, error) {
	timer := a.newTimer()
	ticker, err := services.NormalizeTicker(ticker)
	if err != nil {
		a.recordView(viewHistory, statusError, timer)
		return nil, err
	}
	if days <= 0 {
		days = a.cfg.SentimentAPI.HistoryDays
	}

	ctx, done, err := a.begin(ctx, "history:"+ticker)
	if err != nil {
		return nil, err
	}
	defer done()

	data, err := a.gateway.FetchSentimentHistory(ctx, ticker, days)
	if cause := interrupted(ctx); cause != nil {
		a.recordView(viewHistory, statusSuperseded, timer)
		return nil, fmt.Errorf("load history %s: %w", ticker, cause)
	}
	if callerGone(ctx, err) {
		a.recordView(viewHistory, statusCancelled, timer)
		return nil, fmt.Errorf("load history %s: %w", ticker, err)
	}
	if err != nil {
		a.upstreamFailed(err)
		observability.WithTicker(ticker).Warn("history load failed", "error", err)
		a.recordView(viewHistory, statusError, timer)
		return nil, fmt.Errorf("load history %s: %w", ticker, err)
	}

	view := newHistoryView(ticker, days, data.History)
	a.reportIssues(viewHistory, view.Issues)
	a.recordView(viewHistory, statusSuccess, timer)
	return &view, nil
}

// LoadMentions loads recent mentions as display cards. limit <= 0 uses the
// configured default.
func (a *App) LoadMentions(ctx context.Context, ticker string, limit int) (*MentionsView, error) {
	timer := a.newTimer()
	ticker, err := services.NormalizeTicker(ticker)
	if err != nil {
		a.recordView(viewMentions, statusError, timer)
		return nil, err
	}
	if limit <= 0 {
		limit = a.cfg.SentimentAPI.MentionsLimit
	}

	ctx, done, err := a.begin(ctx, "mentions:"+ticker)
	if err != nil {
		return nil, err
	}
	defer done()

	data, err := a.gateway.FetchStockMentions(ctx, ticker, limit)
	if cause := interrupted(ctx); cause != nil {
		a.recordView(viewMentions, statusSuperseded, timer)
		return nil, fmt.Errorf("load mentions %s: %w", ticker, cause)
	}
	if callerGone(ctx, err) {
		a.recordView(viewMentions, statusCancelled, timer)
		return nil, fmt.Errorf("load mentions %s: %w", ticker, err)
	}
	if err != nil {
		a.upstreamFailed(err)
		observability.WithTicker(ticker).Warn("mentions load failed", "error", err)
		a.recordView(viewMentions, statusError, timer)
		return nil, fmt.Errorf("load mentions %s: %w", ticker, err)
	}

	view := &MentionsView{
		Ticker:   ticker,
		Count:    len(data.Mentions),
		Mentions: newMentionCards(data.Mentions),
		Issues:   mentionIssues(data.Mentions),
	}
	a.reportIssues(viewMentions, view.Issues)
	a.recordView(viewMentions, statusSuccess, timer)
	return view, nil
}
