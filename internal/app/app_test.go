package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"sentiment-dashboard/config"
	"sentiment-dashboard/models"
	"sentiment-dashboard/observability"
	"sentiment-dashboard/services"
)

// fakeGateway is a SentimentGateway whose responses are set per test
type fakeGateway struct {
	dashboard func(ctx context.Context) (*models.DashboardData, error)
	detail    func(ctx context.Context, ticker string) (*models.StockDetailData, error)
	history   func(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error)
	mentions  func(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error)
	scrape    func(ctx context.Context) (*models.ScrapeAck, error)
	aggregate func(ctx context.Context) (*models.AggregateAck, error)
	healthy   bool
}

func (f *fakeGateway) FetchDashboard(ctx context.Context) (*models.DashboardData, error) {
	return f.dashboard(ctx)
}

func (f *fakeGateway) FetchStockDetail(ctx context.Context, ticker string) (*models.StockDetailData, error) {
	return f.detail(ctx, ticker)
}

func (f *fakeGateway) FetchSentimentHistory(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
	return f.history(ctx, ticker, days)
}

func (f *fakeGateway) FetchStockMentions(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
	return f.mentions(ctx, ticker, limit)
}

func (f *fakeGateway) TriggerRedditScrape(ctx context.Context) (*models.ScrapeAck, error) {
	return f.scrape(ctx)
}

func (f *fakeGateway) TriggerNewsScrape(ctx context.Context) (*models.ScrapeAck, error) {
	return f.scrape(ctx)
}

func (f *fakeGateway) TriggerAggregation(ctx context.Context) (*models.AggregateAck, error) {
	return f.aggregate(ctx)
}

func (f *fakeGateway) HealthCheck(ctx context.Context) bool {
	return f.healthy
}

func testDashboard() *models.DashboardData {
	return &models.DashboardData{
		BullishStocks: []models.TrendingStock{
			{Ticker: "CCC", Category: models.CategoryBullish, Score: 0.5, SentimentIndex: 0.3},
			{Ticker: "BBB", Category: models.CategoryBullish, Score: 0.8, SentimentIndex: 0.6},
			{Ticker: "AAA", Category: models.CategoryBullish, Score: 0.8, SentimentIndex: 0.7},
		},
		BearishStocks: []models.TrendingStock{
			{Ticker: "TSLA", Category: models.CategoryBearish, Score: 2, SentimentIndex: -0.4},
		},
		LastUpdated: mustTimestamp("2024-01-07T12:00:00"),
	}
}

func mustTimestamp(s string) models.Timestamp {
	ts, err := models.ParseTimestamp(s)
	if err != nil {
		panic(err)
	}
	return ts
}

func day(s string) models.Timestamp {
	return mustTimestamp(s + "T00:00:00")
}

func testHistory(ticker string) []models.StockSentiment {
	return []models.StockSentiment{
		{Ticker: ticker, Date: day("2024-01-03"), SentimentIndex: 0.4},
		{Ticker: ticker, Date: day("2024-01-02"), SentimentIndex: -0.1},
		{Ticker: ticker, Date: day("2024-01-01"), SentimentIndex: 0.0},
	}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		dashboard: func(ctx context.Context) (*models.DashboardData, error) {
			return testDashboard(), nil
		},
		detail: func(ctx context.Context, ticker string) (*models.StockDetailData, error) {
			return &models.StockDetailData{
				Ticker: ticker,
				CurrentSentiment: models.StockSentiment{
					Ticker: ticker, MentionsCount: 3, PositiveMentions: 2, NegativeMentions: 1, SentimentIndex: 0.25,
				},
			}, nil
		},
		history: func(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
			return &models.SentimentHistoryData{Ticker: ticker, Days: days, History: testHistory(ticker)}, nil
		},
		mentions: func(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
			return &models.StockMentionsData{Ticker: ticker, Mentions: []models.StockMention{
				{ID: 1, Ticker: ticker, Text: "to the moon", Sentiment: models.MentionPositive, SentimentScore: 0.9, Source: models.SourceReddit, SourceID: "abc"},
			}, Count: 1}, nil
		},
		scrape: func(ctx context.Context) (*models.ScrapeAck, error) {
			return &models.ScrapeAck{Message: "done", TotalFound: 7}, nil
		},
		aggregate: func(ctx context.Context) (*models.AggregateAck, error) {
			return &models.AggregateAck{Message: "done", StocksProcessed: 4, BullishStocks: 3, BearishStocks: 1}, nil
		},
		healthy: true,
	}
}

// testApp creates an App over gw with test config and no metrics
func testApp(gw services.SentimentGateway) *App {
	return New(config.NewTestConfig(), gw, nil)
}

func upstreamDown() error {
	return &services.TransportError{Op: services.OpFetchDashboard, StatusCode: http.StatusServiceUnavailable, Err: errors.New("down")}
}

func TestApp_LoadDashboard(t *testing.T) {
	a := testApp(newFakeGateway())

	view, err := a.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.BullishCount != 3 || view.BearishCount != 1 {
		t.Fatalf("expected 3/1 entries, got %d/%d", view.BullishCount, view.BearishCount)
	}

	want := []string{"AAA", "BBB", "CCC"}
	for i, e := range view.Bullish {
		if e.Stock.Ticker != want[i] || e.Rank != i+1 {
			t.Errorf("bullish[%d] = %s rank %d, want %s rank %d", i, e.Stock.Ticker, e.Rank, want[i], i+1)
		}
	}
	if view.Stale || view.Warning != "" {
		t.Error("fresh view should not be stale")
	}
	if view.LoadedAt.IsZero() {
		t.Error("expected LoadedAt to be set")
	}
	if a.InFlight() != 0 {
		t.Errorf("expected no in-flight loads, got %d", a.InFlight())
	}
}

func TestApp_LoadDashboard_InitialFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.dashboard = func(ctx context.Context) (*models.DashboardData, error) {
		return nil, upstreamDown()
	}
	a := testApp(gw)

	_, err := a.LoadDashboard(context.Background())
	if err == nil {
		t.Fatal("expected error on initial failure")
	}
	var te *services.TransportError
	if !errors.As(err, &te) {
		t.Errorf("expected TransportError, got %v", err)
	}
	if a.LastDashboard() != nil {
		t.Error("failed load must not store a snapshot")
	}
}

func TestApp_LoadDashboard_ServesStaleAfterFailure(t *testing.T) {
	gw := newFakeGateway()
	a := New(config.NewTestConfig(), gw, observability.NewMetrics(prometheus.NewRegistry()))

	first, err := a.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gw.dashboard = func(ctx context.Context) (*models.DashboardData, error) {
		return nil, upstreamDown()
	}
	second, err := a.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("expected stale view, got error: %v", err)
	}
	if !second.Stale {
		t.Error("expected Stale to be true")
	}
	if second.Warning == "" {
		t.Error("expected a warning")
	}
	if second.BullishCount != first.BullishCount || !second.LoadedAt.Equal(first.LoadedAt) {
		t.Error("stale view should carry the last good data")
	}

	if got := testutil.ToFloat64(a.metrics.StaleSnapshotsServed.WithLabelValues(viewDashboard)); got != 1 {
		t.Errorf("expected 1 stale snapshot served, got %v", got)
	}
	if got := testutil.ToFloat64(a.metrics.ViewLoadsTotal.WithLabelValues(viewDashboard, statusStale)); got != 1 {
		t.Errorf("expected 1 stale load, got %v", got)
	}

	// The snapshot itself stays fresh
	if last := a.LastDashboard(); last.Stale {
		t.Error("stored snapshot should not be marked stale")
	}
}

func TestApp_LoadDashboard_EmptyPayloadKeepsSnapshot(t *testing.T) {
	good, err := json.Marshal(testDashboard())
	if err != nil {
		t.Fatal(err)
	}
	var body atomic.Value
	body.Store(good)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(body.Load().([]byte))
	}))
	defer server.Close()

	svc := services.NewSentimentAPIService(services.SentimentAPIConfig{BaseURL: server.URL},
		services.WithRetryConfig(services.RetryConfig{MaxRetries: 0}))
	a := testApp(svc)

	first, err := a.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, payload := range []string{`null`, `{}`, `{"unexpected":true}`, `{"bullish_stocks":null,"bearish_stocks":[]}`} {
		body.Store([]byte(payload))
		view, err := a.LoadDashboard(context.Background())
		if err != nil {
			t.Fatalf("%s: expected stale view, got error: %v", payload, err)
		}
		if !view.Stale || view.BullishCount != first.BullishCount || view.BearishCount != first.BearishCount {
			t.Errorf("%s: expected the last good boards marked stale, got %+v", payload, view)
		}
	}

	if last := a.LastDashboard(); last.BullishCount != first.BullishCount || !last.LoadedAt.Equal(first.LoadedAt) {
		t.Errorf("snapshot was replaced: %+v", last)
	}
}

func TestApp_LoadDashboard_CallerCancelled(t *testing.T) {
	gw := newFakeGateway()
	a := New(config.NewTestConfig(), gw, observability.NewMetrics(prometheus.NewRegistry()))
	a.health = newLivenessCache(time.Minute)

	if _, err := a.LoadDashboard(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.health.set(true)

	ctx, cancel := context.WithCancel(context.Background())
	gw.dashboard = func(ctx context.Context) (*models.DashboardData, error) {
		cancel()
		<-ctx.Done()
		return nil, &services.TransportError{Op: services.OpFetchDashboard, Err: ctx.Err()}
	}

	view, err := a.LoadDashboard(ctx)
	if view != nil {
		t.Errorf("a departed caller should not get a stale view, got %+v", view)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if got := testutil.ToFloat64(a.metrics.StaleSnapshotsServed.WithLabelValues(viewDashboard)); got != 0 {
		t.Errorf("stale snapshots served = %v, want 0", got)
	}
	if got := testutil.ToFloat64(a.metrics.ViewLoadsTotal.WithLabelValues(viewDashboard, statusCancelled)); got != 1 {
		t.Errorf("cancelled loads = %v, want 1", got)
	}
	if up, fresh := a.health.get(); !up || !fresh {
		t.Error("caller cancellation should not invalidate upstream liveness")
	}
}

func TestApp_StockLoads_CallerCancelled(t *testing.T) {
	tests := []struct {
		name string
		view string
		load func(a *App, ctx context.Context) error
	}{
		{"detail", viewStock, func(a *App, ctx context.Context) error {
			_, err := a.LoadStockDetail(ctx, "AAPL")
			return err
		}},
		{"history", viewHistory, func(a *App, ctx context.Context) error {
			_, err := a.LoadHistory(ctx, "AAPL", 7)
			return err
		}},
		{"mentions", viewMentions, func(a *App, ctx context.Context) error {
			_, err := a.LoadMentions(ctx, "AAPL", 5)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			gone := func(ctx context.Context) error {
				cancel()
				<-ctx.Done()
				return &services.TransportError{Op: tt.name, Err: ctx.Err()}
			}
			gw := newFakeGateway()
			gw.detail = func(ctx context.Context, ticker string) (*models.StockDetailData, error) {
				return nil, gone(ctx)
			}
			gw.history = func(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
				return nil, gone(ctx)
			}
			gw.mentions = func(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
				return nil, gone(ctx)
			}
			a := New(config.NewTestConfig(), gw, observability.NewMetrics(prometheus.NewRegistry()))
			a.health = newLivenessCache(time.Minute)
			a.health.set(true)

			if err := tt.load(a, ctx); !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			if got := testutil.ToFloat64(a.metrics.ViewLoadsTotal.WithLabelValues(tt.view, statusCancelled)); got != 1 {
				t.Errorf("cancelled loads = %v, want 1", got)
			}
			if got := testutil.ToFloat64(a.metrics.ViewLoadsTotal.WithLabelValues(tt.view, statusError)); got != 0 {
				t.Errorf("error loads = %v, want 0", got)
			}
			if _, fresh := a.health.get(); !fresh {
				t.Error("caller cancellation should not invalidate upstream liveness")
			}
		})
	}
}

func TestApp_LoadDashboard_ReportsIssues(t *testing.T) {
	gw := newFakeGateway()
	gw.dashboard = func(ctx context.Context) (*models.DashboardData, error) {
		d := testDashboard()
		d.BullishStocks[0].SentimentIndex = 3
		return d, nil
	}
	a := New(config.NewTestConfig(), gw, observability.NewMetrics(prometheus.NewRegistry()))

	view, err := a.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("data issues must not fail the view: %v", err)
	}
	if len(view.Issues) != 1 {
		t.Fatalf("expected 1 issue, got %d", len(view.Issues))
	}
	if got := testutil.ToFloat64(a.metrics.DataQualityIssues.WithLabelValues(string(models.IssueIndexOutOfRange))); got != 1 {
		t.Errorf("expected 1 issue recorded, got %v", got)
	}
}

// blockingDashboard blocks the first call until its context ends and
// answers later calls immediately
func blockingDashboard(started chan<- struct{}) func(ctx context.Context) (*models.DashboardData, error) {
	var calls atomic.Int32
	return func(ctx context.Context) (*models.DashboardData, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-ctx.Done()
			return nil, &services.TransportError{Op: services.OpFetchDashboard, Err: ctx.Err()}
		}
		return testDashboard(), nil
	}
}

func TestApp_LoadDashboard_Superseded(t *testing.T) {
	gw := newFakeGateway()
	started := make(chan struct{})
	gw.dashboard = blockingDashboard(started)
	a := testApp(gw)

	errc := make(chan error, 1)
	go func() {
		_, err := a.LoadDashboard(context.Background())
		errc <- err
	}()
	<-started

	view, err := a.LoadDashboard(context.Background())
	if err != nil {
		t.Fatalf("newer load failed: %v", err)
	}
	if view.Stale {
		t.Error("newer load should be fresh")
	}

	select {
	case err := <-errc:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("expected ErrSuperseded, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("older load was not cancelled")
	}
}

func TestApp_LoadDashboard_ClientsDoNotSupersedeEachOther(t *testing.T) {
	gw := newFakeGateway()
	release := make(chan struct{})
	started := make(chan struct{})
	var calls atomic.Int32
	gw.dashboard = func(ctx context.Context) (*models.DashboardData, error) {
		if calls.Add(1) == 1 {
			close(started)
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return testDashboard(), nil
	}
	a := testApp(gw)

	errc := make(chan error, 1)
	go func() {
		_, err := a.LoadDashboard(WithClientID(context.Background(), "alice"))
		errc <- err
	}()
	<-started

	if _, err := a.LoadDashboard(WithClientID(context.Background(), "bob")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.InFlight() != 1 {
		t.Errorf("expected first client's load still in flight, got %d", a.InFlight())
	}
	close(release)

	if err := <-errc; err != nil {
		t.Errorf("first client's load should succeed, got %v", err)
	}
}

func TestApp_Close(t *testing.T) {
	gw := newFakeGateway()
	started := make(chan struct{})
	gw.dashboard = blockingDashboard(started)
	a := testApp(gw)

	errc := make(chan error, 1)
	go func() {
		_, err := a.LoadDashboard(context.Background())
		errc <- err
	}()
	<-started
	a.Close()

	if err := <-errc; !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := a.LoadDashboard(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after Close, got %v", err)
	}

	// Close is idempotent
	a.Close()
}

func TestApp_Startup_ClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	a := testApp(newFakeGateway())
	a.Startup(ctx)
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := a.LoadDashboard(context.Background()); errors.Is(err, ErrClosed) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("app was not closed when the startup context ended")
}

func TestApp_LoadStockDetail(t *testing.T) {
	gw := newFakeGateway()
	var mu sync.Mutex
	var gotDays, gotLimit int
	gw.history = func(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
		mu.Lock()
		gotDays = days
		mu.Unlock()
		return &models.SentimentHistoryData{Ticker: ticker, Days: days, History: testHistory(ticker)}, nil
	}
	inner := gw.mentions
	gw.mentions = func(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
		mu.Lock()
		gotLimit = limit
		mu.Unlock()
		return inner(ctx, ticker, limit)
	}
	a := testApp(gw)

	view, err := a.LoadStockDetail(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Ticker != "AAPL" {
		t.Errorf("expected normalized ticker AAPL, got %s", view.Ticker)
	}
	if view.Headline != "Bullish Sentiment" {
		t.Errorf("unexpected headline %q", view.Headline)
	}
	if view.Stats.SentimentIndex != "+0.25" {
		t.Errorf("unexpected index text %q", view.Stats.SentimentIndex)
	}
	if gotDays != 7 || gotLimit != 20 {
		t.Errorf("expected days 7 and limit 20, got %d and %d", gotDays, gotLimit)
	}

	// Oldest first
	wantLabels := []string{"Jan 1", "Jan 2", "Jan 3"}
	if len(view.History.Points) != len(wantLabels) {
		t.Fatalf("expected %d points, got %d", len(wantLabels), len(view.History.Points))
	}
	for i, p := range view.History.Points {
		if p.Label != wantLabels[i] {
			t.Errorf("point %d label = %q, want %q", i, p.Label, wantLabels[i])
		}
	}

	if len(view.Mentions) != 1 {
		t.Fatalf("expected 1 mention card, got %d", len(view.Mentions))
	}
	card := view.Mentions[0]
	if card.Color != "green" || card.Permalink == "" || card.Score != "0.90" {
		t.Errorf("unexpected card %+v", card)
	}
}

func TestApp_LoadStockDetail_FailsFast(t *testing.T) {
	gw := newFakeGateway()
	gw.history = func(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
		return nil, &services.TransportError{Op: services.OpFetchSentimentHistory, StatusCode: http.StatusInternalServerError, Err: errors.New("boom")}
	}
	a := testApp(gw)

	view, err := a.LoadStockDetail(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected combined load to fail when history fails")
	}
	if view != nil {
		t.Error("partial data must be discarded")
	}
	var te *services.TransportError
	if !errors.As(err, &te) || te.Op != services.OpFetchSentimentHistory {
		t.Errorf("expected history TransportError, got %v", err)
	}
}

func TestApp_LoadStockDetail_CancelsSiblings(t *testing.T) {
	gw := newFakeGateway()
	cancelled := make(chan struct{})
	gw.mentions = func(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	}
	gw.detail = func(ctx context.Context, ticker string) (*models.StockDetailData, error) {
		return nil, &services.NotFoundError{Op: services.OpFetchStockDetail, Resource: "stock " + ticker}
	}
	a := testApp(gw)

	_, err := a.LoadStockDetail(context.Background(), "ZZZ")
	var nf *services.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("sibling fetch was not cancelled")
	}
}

func TestApp_LoadStockDetail_InvalidTicker(t *testing.T) {
	a := testApp(newFakeGateway())
	_, err := a.LoadStockDetail(context.Background(), "   ")
	if !errors.Is(err, services.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestApp_LoadHistory(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		wantDays int
	}{
		{"explicit days", 30, 30},
		{"default days", 0, 7},
		{"negative days", -3, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			var got int
			gw.history = func(ctx context.Context, ticker string, days int) (*models.SentimentHistoryData, error) {
				got = days
				return &models.SentimentHistoryData{Ticker: ticker, Days: days, History: testHistory(ticker)}, nil
			}
			a := testApp(gw)

			view, err := a.LoadHistory(context.Background(), "nvda", tt.days)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantDays || view.Days != tt.wantDays {
				t.Errorf("expected days %d, got request %d view %d", tt.wantDays, got, view.Days)
			}
			if len(view.Line) != 3 || len(view.Bars) != 3 {
				t.Errorf("expected 3 line and bar points, got %d and %d", len(view.Line), len(view.Bars))
			}
			if view.Line[0].SentimentIndex != 0.0 || view.Line[2].SentimentIndex != 0.4 {
				t.Errorf("line not oldest first: %+v", view.Line)
			}
		})
	}
}

func TestApp_LoadMentions_Empty(t *testing.T) {
	gw := newFakeGateway()
	gw.mentions = func(ctx context.Context, ticker string, limit int) (*models.StockMentionsData, error) {
		return &models.StockMentionsData{Ticker: ticker}, nil
	}
	a := testApp(gw)

	view, err := a.LoadMentions(context.Background(), "AAPL", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Mentions == nil || len(view.Mentions) != 0 || view.Count != 0 {
		t.Errorf("expected empty non-nil mentions, got %+v", view)
	}
}

func TestApp_Refresh(t *testing.T) {
	gw := newFakeGateway()
	a := testApp(gw)
	ctx := context.Background()

	if ack, err := a.RefreshReddit(ctx); err != nil || ack.TotalFound != 7 {
		t.Errorf("reddit: ack %+v err %v", ack, err)
	}
	if ack, err := a.RefreshNews(ctx); err != nil || ack.TotalFound != 7 {
		t.Errorf("news: ack %+v err %v", ack, err)
	}
	if ack, err := a.RefreshAggregate(ctx); err != nil || ack.StocksProcessed != 4 {
		t.Errorf("aggregate: ack %+v err %v", ack, err)
	}

	gw.scrape = func(ctx context.Context) (*models.ScrapeAck, error) {
		return nil, upstreamDown()
	}
	if _, err := a.RefreshReddit(ctx); err == nil {
		t.Error("expected scrape error to propagate")
	}
}

func TestApp_Health(t *testing.T) {
	gw := newFakeGateway()
	a := testApp(gw)

	if h := a.Health(context.Background()); h.Status != HealthOK || !h.Upstream {
		t.Errorf("expected ok, got %+v", h)
	}

	gw.healthy = false
	if h := a.Health(context.Background()); h.Status != HealthDegraded || h.Upstream {
		t.Errorf("expected degraded, got %+v", h)
	}
}

func TestApp_Health_ReportsBreakers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","timestamp":"2024-01-07T00:00:00"}`))
	}))
	defer server.Close()

	svc := services.NewSentimentAPIService(services.SentimentAPIConfig{BaseURL: server.URL})
	svc.Breakers().GetBreaker(services.BreakerSentimentAPI)
	a := testApp(svc)

	h := a.Health(context.Background())
	if !h.Upstream {
		t.Error("expected upstream to be up")
	}
	if _, ok := h.Breakers[services.BreakerSentimentAPI]; !ok {
		t.Errorf("expected breaker status, got %+v", h.Breakers)
	}
}
