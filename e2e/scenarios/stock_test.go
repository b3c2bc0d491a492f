package scenarios

import (
	"net/http"
	"testing"

	"sentiment-dashboard/e2e/mocks"
	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/models"
	"sentiment-dashboard/services"
)

func TestStockDetailWorkflow(t *testing.T) {
	harness := setupHarness(t)

	resp := harness.DoRequest(http.MethodGet, "/api/stocks/aapl", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var view app.StockView
	harness.DecodeJSON(resp, &view)

	if view.Ticker != "AAPL" {
		t.Errorf("expected AAPL, got %s", view.Ticker)
	}
	if len(view.History.Points) != harness.Config().SentimentAPI.HistoryDays {
		t.Errorf("expected %d history points, got %d", harness.Config().SentimentAPI.HistoryDays, len(view.History.Points))
	}
	points := view.History.Points
	for i := 1; i < len(points); i++ {
		if !points[i-1].Date.Before(points[i].Date) {
			t.Fatalf("history not in chronological order at %d", i)
		}
	}
	if last := points[len(points)-1]; !last.Date.Equal(mocks.FixtureDate) {
		t.Errorf("expected newest point last, got %s", last.Date)
	}
	for _, p := range points {
		if p.Positive+p.Negative+p.Neutral != p.Total {
			t.Errorf("bucket sum mismatch on %s", p.Label)
		}
	}
	if len(view.Issues) != 0 {
		t.Errorf("expected clean fixtures, got issues %v", view.Issues)
	}

	mock := harness.MockServer()
	for _, prefix := range []string{"/stock/AAPL", "/sentiment/AAPL/history", "/mentions/AAPL"} {
		if got := mock.CountRequests(http.MethodGet, prefix); got != 1 {
			t.Errorf("expected 1 request to %s, got %d", prefix, got)
		}
	}
}

func TestStockDetail_ShapesNewestFirstHistory(t *testing.T) {
	harness := setupHarness(t)
	day := func(s string) models.Timestamp {
		ts, err := models.ParseTimestamp(s)
		if err != nil {
			t.Fatalf("bad fixture date %q: %v", s, err)
		}
		return ts
	}
	harness.MockServer().SetHistory("AAPL", []models.StockSentiment{
		{Ticker: "AAPL", Date: day("2024-01-03"), SentimentIndex: 0.4},
		{Ticker: "AAPL", Date: day("2024-01-02"), SentimentIndex: -0.1},
		{Ticker: "AAPL", Date: day("2024-01-01"), SentimentIndex: 0.0},
	})

	resp := harness.DoRequest(http.MethodGet, "/api/stocks/AAPL/history", "")
	var view app.HistoryView
	harness.DecodeJSON(resp, &view)

	want := []string{"Jan 1", "Jan 2", "Jan 3"}
	if len(view.Line) != len(want) {
		t.Fatalf("expected %d points, got %d", len(want), len(view.Line))
	}
	for i, p := range view.Line {
		if p.Label != want[i] {
			t.Errorf("point %d = %s, want %s", i, p.Label, want[i])
		}
	}
}

func TestStockDetail_EmptyMentions(t *testing.T) {
	harness := setupHarness(t)
	harness.MockServer().SetMentions("MSFT", nil)

	resp := harness.DoRequest(http.MethodGet, "/api/stocks/MSFT/mentions", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var view app.MentionsView
	harness.DecodeJSON(resp, &view)
	if view.Mentions == nil || len(view.Mentions) != 0 {
		t.Errorf("expected empty mention list, got %v", view.Mentions)
	}
}

func TestStockDetail_FailsFastWhenHistoryFails(t *testing.T) {
	harness := setupHarness(t)
	harness.MockServer().SetError(mocks.EndpointHistory, http.StatusInternalServerError)

	resp := harness.DoRequest(http.MethodGet, "/api/stocks/NVDA", "")
	if resp.Code != http.StatusBadGateway {
		t.Errorf("expected status 502 even though mentions succeeded, got %d", resp.Code)
	}
	var body map[string]string
	harness.DecodeJSON(resp, &body)
	if body["error"] == "" {
		t.Error("expected error message")
	}
}

func TestStockDetail_UnknownTicker(t *testing.T) {
	harness := setupHarness(t)
	harness.MockServer().RemoveStock("GME")

	resp := harness.DoRequest(http.MethodGet, "/api/stocks/GME", "")
	if resp.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.Code)
	}
	if got := harness.MockServer().CountRequests(http.MethodGet, "/stock/GME"); got != 1 {
		t.Errorf("404 must not be retried, got %d attempts", got)
	}
}

func TestStockDetail_CircuitBreakerOpens(t *testing.T) {
	harness := setupHarness(t)
	mock := harness.MockServer()
	mock.SetError(mocks.EndpointHistory, http.StatusInternalServerError)

	minRequests := harness.Config().CircuitBreaker.MinRequests
	for i := 0; i < minRequests; i++ {
		if resp := harness.DoRequest(http.MethodGet, "/api/stocks/TSLA/history", ""); resp.Code != http.StatusBadGateway {
			t.Fatalf("request %d: expected 502, got %d", i, resp.Code)
		}
	}

	before := mock.CountRequests(http.MethodGet, "/sentiment/TSLA/history")
	resp := harness.DoRequest(http.MethodGet, "/api/stocks/TSLA/history", "")
	if resp.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 with open breaker, got %d", resp.Code)
	}
	if after := mock.CountRequests(http.MethodGet, "/sentiment/TSLA/history"); after != before {
		t.Errorf("open breaker must not reach upstream, got %d new requests", after-before)
	}

	health := harness.DoRequest(http.MethodGet, "/api/health", "")
	var view app.HealthView
	harness.DecodeJSON(health, &view)
	if view.Status != app.HealthDegraded {
		t.Errorf("expected degraded health, got %s", view.Status)
	}
	if view.Breakers[services.BreakerSentimentAPI].State != "open" {
		t.Errorf("expected open breaker, got %+v", view.Breakers)
	}
}

func TestRefreshWorkflow(t *testing.T) {
	harness := setupHarness(t)
	mock := harness.MockServer()
	mock.SetScrapeFound(17)

	resp := harness.DoRequest(http.MethodPost, "/api/refresh/reddit", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	var ack models.ScrapeAck
	harness.DecodeJSON(resp, &ack)
	if ack.TotalFound != 17 || ack.Message != "Reddit scraping completed" {
		t.Errorf("unexpected ack %+v", ack)
	}

	mock.SetTransientError(mocks.EndpointAggregate, http.StatusServiceUnavailable, 1)
	resp = harness.DoRequest(http.MethodPost, "/api/refresh/aggregate", "")
	if resp.Code != http.StatusBadGateway {
		t.Errorf("expected trigger failure to surface, got %d", resp.Code)
	}
	if got := mock.CountRequests(http.MethodPost, "/aggregate"); got != 1 {
		t.Errorf("triggers must not be retried, got %d attempts", got)
	}
}
