package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"sentiment-dashboard/config"
	"sentiment-dashboard/internal/app"
	"sentiment-dashboard/observability"
	"sentiment-dashboard/services"

	"github.com/go-chi/chi/v5"
)

// StaleHeader marks a response served from the last good snapshot
const StaleHeader = "X-Data-Stale"

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// Handler handles HTTP API requests
type Handler struct {
	app *app.App
	cfg *config.Config
}

// NewHandler creates a new Handler
func NewHandler(application *app.App, cfg *config.Config) *Handler {
	return &Handler{app: application, cfg: cfg}
}

// HandleHealth returns the dashboard's status, upstream liveness and breaker states
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.app.Health(r.Context())

	// An open breaker means reads are being rejected
	for _, cb := range health.Breakers {
		if cb.State == "open" {
			health.Status = app.HealthDegraded
			break
		}
	}

	h.jsonResponse(w, health)
}

// HandleDashboard returns the ranked bullish and bearish leaderboards
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.app.LoadDashboard(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if view.Stale {
		w.Header().Set(StaleHeader, "true")
	}
	h.jsonResponse(w, view)
}

// HandleStock returns the detail page of one ticker
func (h *Handler) HandleStock(w http.ResponseWriter, r *http.Request) {
	ticker, err := h.tickerParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.app.LoadStockDetail(r.Context(), ticker)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonResponse(w, view)
}

// HandleHistory returns a ticker's chart-ready sentiment history
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ticker, err := h.tickerParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	days, err := h.ParseIntParam(r, "days", h.cfg.SentimentAPI.HistoryDays)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.app.LoadHistory(r.Context(), ticker, days)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonResponse(w, view)
}

// HandleMentions returns a ticker's recent mentions
func (h *Handler) HandleMentions(w http.ResponseWriter, r *http.Request) {
	ticker, err := h.tickerParam(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit, err := h.ParseIntParam(r, "limit", h.cfg.SentimentAPI.MentionsLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	view, err := h.app.LoadMentions(r.Context(), ticker, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonResponse(w, view)
}

// HandleRefreshReddit triggers a Reddit scrape upstream
func (h *Handler) HandleRefreshReddit(w http.ResponseWriter, r *http.Request) {
	ack, err := h.app.RefreshReddit(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonResponse(w, ack)
}

// HandleRefreshNews triggers a news scrape upstream
func (h *Handler) HandleRefreshNews(w http.ResponseWriter, r *http.Request) {
	ack, err := h.app.RefreshNews(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonResponse(w, ack)
}

// HandleRefreshAggregate triggers aggregation upstream
func (h *Handler) HandleRefreshAggregate(w http.ResponseWriter, r *http.Request) {
	ack, err := h.app.RefreshAggregate(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.jsonResponse(w, ack)
}

func (h *Handler) tickerParam(r *http.Request) (string, error) {
	ticker, err := services.NormalizeTicker(chi.URLParam(r, "ticker"))
	if err != nil {
		return "", err
	}
	if err := h.ValidateTicker(ticker); err != nil {
		return "", err
	}
	return ticker, nil
}

// ValidateTicker validates a normalized ticker symbol
func (h *Handler) ValidateTicker(ticker string) error {
	if ticker == "" {
		return fmt.Errorf("%w: ticker is required", services.ErrInvalidArgument)
	}

	if len(ticker) > 10 {
		return fmt.Errorf("%w: ticker too long (max 10 characters)", services.ErrInvalidArgument)
	}

	if !tickerPattern.MatchString(ticker) {
		return fmt.Errorf("%w: invalid ticker format (alphanumeric, dots, and dashes only)", services.ErrInvalidArgument)
	}

	return nil
}

// ParseIntParam parses a positive integer query parameter. A missing
// parameter yields defaultValue.
func (h *Handler) ParseIntParam(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", services.ErrInvalidArgument, name)
	}
	return v, nil
}

// StatusCode maps an application error to an HTTP status
func StatusCode(err error) int {
	var (
		notFound  *services.NotFoundError
		decode    *services.DecodeError
		transport *services.TransportError
	)
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrSuperseded), errors.Is(err, app.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, services.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &decode), errors.As(err, &transport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		observability.Error("request failed", "status", status, "error", err)
	} else {
		observability.Debug("request rejected", "status", status, "error", err)
	}
	h.jsonError(w, err.Error(), status)
}

func (h *Handler) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
