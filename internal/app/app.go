package app

import (
	"context"
	"errors"
	"sync"

	"sentiment-dashboard/config"
	"sentiment-dashboard/models"
	"sentiment-dashboard/observability"
	"sentiment-dashboard/services"
	"sentiment-dashboard/trending"
)

var (
	// ErrSuperseded is returned by a load that was cancelled because the same
	// client started a newer load of the same view.
	ErrSuperseded = errors.New("superseded by a newer load")

	// ErrClosed is returned by loads started or still running after Close.
	ErrClosed = errors.New("app closed")
)

// Load statuses recorded in view metrics
const (
	statusSuccess    = "success"
	statusStale      = "stale"
	statusError      = "error"
	statusSuperseded = "superseded"
	statusCancelled  = "cancelled"
)

// breakerReporter is implemented by gateways that expose their circuit breakers
type breakerReporter interface {
	Breakers() *services.CircuitBreakerRegistry
}

// App composes the sentiment gateway with the series shaper and trend
// classifier into page view models.
type App struct {
	ctx     context.Context
	cancel  context.CancelFunc
	cfg     *config.Config
	gateway services.SentimentGateway
	metrics *observability.Metrics
	opts    trending.Options
	health  *livenessCache

	mu       sync.Mutex
	inflight map[string]*inflightLoad
	seq      uint64
	closed   bool

	snapMu    sync.RWMutex
	dashboard *DashboardView
}

type inflightLoad struct {
	id     uint64
	cancel context.CancelCauseFunc
}

// New creates a new App. metrics may be nil.
func New(cfg *config.Config, gateway services.SentimentGateway, metrics *observability.Metrics) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:      ctx,
		cancel:   cancel,
		cfg:      cfg,
		gateway:  gateway,
		metrics:  metrics,
		opts:     cfg.LeaderboardOptions(),
		health:   newLivenessCache(cfg.HealthCacheTTL()),
		inflight: make(map[string]*inflightLoad),
	}
}

// Startup ties the app's lifetime to ctx
func (a *App) Startup(ctx context.Context) {
	context.AfterFunc(ctx, a.Close)
}

// Shutdown cancels in-flight loads
func (a *App) Shutdown(ctx context.Context) {
	a.Close()
}

// Close cancels every in-flight load. Later loads fail with ErrClosed.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	for key, load := range a.inflight {
		load.cancel(ErrClosed)
		delete(a.inflight, key)
	}
	a.cancel()
}

// Gateway returns the upstream gateway
func (a *App) Gateway() services.SentimentGateway {
	return a.gateway
}

// InFlight returns the number of loads currently running
func (a *App) InFlight() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inflight)
}

type clientKey struct{}

// WithClientID scopes supersede-and-cancel to one client: a new load only
// cancels an older load of the same view started under the same id.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientKey{}, id)
}

// ClientID returns the client id set by WithClientID, or ""
func ClientID(ctx context.Context) string {
	id, _ := ctx.Value(clientKey{}).(string)
	return id
}

// begin registers a load for view, cancelling any older load of the same view
// by the same client. The returned func must be called when the load ends.
func (a *App) begin(parent context.Context, view string) (context.Context, func(), error) {
	key := view + "|" + ClientID(parent)
	ctx, cancel := context.WithCancelCause(parent)

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		cancel(ErrClosed)
		return nil, nil, ErrClosed
	}
	if prev, ok := a.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	a.seq++
	id := a.seq
	a.inflight[key] = &inflightLoad{id: id, cancel: cancel}
	a.mu.Unlock()

	stop := context.AfterFunc(a.ctx, func() { cancel(ErrClosed) })

	done := func() {
		stop()
		a.mu.Lock()
		if cur, ok := a.inflight[key]; ok && cur.id == id {
			delete(a.inflight, key)
		}
		a.mu.Unlock()
		cancel(nil)
	}
	return ctx, done, nil
}

// interrupted returns the supersede or close cause of ctx, or nil.
func interrupted(ctx context.Context) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, ErrSuperseded) || errors.Is(cause, ErrClosed) {
		return cause
	}
	return nil
}

func (a *App) recordView(view, status string, timer *observability.Timer) {
	if a.metrics == nil {
		return
	}
	timer.ObserveView(view, status)
}

// callerGone reports whether err followed the caller cancelling ctx or its
// deadline passing. Such failures say nothing about the upstream.
func callerGone(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}

// upstreamFailed drops the cached liveness after a transport failure so the
// next health check probes the upstream again.
func (a *App) upstreamFailed(err error) {
	var te *services.TransportError
	if errors.As(err, &te) {
		a.health.invalidate()
	}
}

func (a *App) newTimer() *observability.Timer {
	if a.metrics == nil {
		return nil
	}
	return a.metrics.NewTimer()
}

// reportIssues logs data-quality problems. They never fail a view.
func (a *App) reportIssues(view string, issues []models.DataIssue) {
	for _, issue := range issues {
		observability.Warn("data quality issue",
			"view", view,
			"ticker", issue.Ticker,
			"kind", string(issue.Kind),
			"field", issue.Field,
			"message", issue.Message)
		if a.metrics != nil {
			a.metrics.RecordDataIssue(string(issue.Kind))
		}
	}
}
