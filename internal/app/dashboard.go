package app

import (
	"context"
	"fmt"
	"time"

	"sentiment-dashboard/observability"
	"sentiment-dashboard/trending"
)

const viewDashboard = "dashboard"

// LoadDashboard fetches and ranks the trending leaderboards. When a refresh
// fails after an earlier success, the last good view is returned marked
// stale instead of an error.
func (a *App) LoadDashboard(ctx context.Context) (*DashboardView, error) {
	timer := a.newTimer()
	ctx, done, err := a.begin(ctx, viewDashboard)
	if err != nil {
		return nil, err
	}
	defer done()

	data, err := a.gateway.FetchDashboard(ctx)
	if cause := interrupted(ctx); cause != nil {
		a.recordView(viewDashboard, statusSuperseded, timer)
		return nil, fmt.Errorf("load dashboard: %w", cause)
	}
	if callerGone(ctx, err) {
		a.recordView(viewDashboard, statusCancelled, timer)
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	if err != nil {
		a.upstreamFailed(err)
		if stale := a.staleDashboard(err); stale != nil {
			observability.WithError(err).Warn("serving stale dashboard", "loaded_at", stale.LoadedAt)
			a.recordView(viewDashboard, statusStale, timer)
			if a.metrics != nil {
				a.metrics.RecordStaleSnapshot(viewDashboard)
			}
			return stale, nil
		}
		a.recordView(viewDashboard, statusError, timer)
		return nil, fmt.Errorf("load dashboard: %w", err)
	}

	board := trending.Leaderboard(*data, a.opts)
	a.reportIssues(viewDashboard, board.Issues)

	view := &DashboardView{
		Bullish:      board.Bullish,
		Bearish:      board.Bearish,
		BullishCount: len(board.Bullish),
		BearishCount: len(board.Bearish),
		LastUpdated:  board.LastUpdated,
		LoadedAt:     time.Now().UTC(),
		Issues:       board.Issues,
	}

	a.snapMu.Lock()
	a.dashboard = view
	a.snapMu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordLeaderboard(string(trending.ToneBullish), indices(view.Bullish))
		a.metrics.RecordLeaderboard(string(trending.ToneBearish), indices(view.Bearish))
	}
	a.recordView(viewDashboard, statusSuccess, timer)

	return copyDashboard(view), nil
}

// LastDashboard returns the last successfully loaded dashboard, or nil.
func (a *App) LastDashboard() *DashboardView {
	a.snapMu.RLock()
	defer a.snapMu.RUnlock()
	if a.dashboard == nil {
		return nil
	}
	return copyDashboard(a.dashboard)
}

func (a *App) staleDashboard(cause error) *DashboardView {
	view := a.LastDashboard()
	if view == nil {
		return nil
	}
	view.Stale = true
	view.Warning = fmt.Sprintf("showing data loaded at %s: refresh failed: %v",
		view.LoadedAt.Format(time.RFC3339), cause)
	return view
}

// copyDashboard returns a shallow copy whose slices callers may not share with the snapshot.
func copyDashboard(v *DashboardView) *DashboardView {
	out := *v
	out.Bullish = append([]trending.Entry(nil), v.Bullish...)
	out.Bearish = append([]trending.Entry(nil), v.Bearish...)
	if out.Bullish == nil {
		out.Bullish = []trending.Entry{}
	}
	if out.Bearish == nil {
		out.Bearish = []trending.Entry{}
	}
	return &out
}

func indices(entries []trending.Entry) []float64 {
	out := make([]float64, len(entries))
	for i, e := range entries {
		out[i] = e.Stock.SentimentIndex
	}
	return out
}
