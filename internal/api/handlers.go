package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bellwether/internal/metrics"
	"bellwether/pkg/types"
)

// MetricsProvider is the coordinator surface the handlers call into.
type MetricsProvider interface {
	MarketMetrics(ctx context.Context, venue types.Venue, id string) (*types.MarketMetrics, error)
	CombinedMetrics(ctx context.Context, pmToken, kTicker string) *types.CombinedMetrics
}

// Health carries the wiring facts reported by the health endpoint.
type Health struct {
	CredentialConfigured bool
	CacheConfigured      bool
}

// Handlers holds all HTTP handler dependencies.
type Handlers struct {
	provider MetricsProvider
	health   Health
	logger   *slog.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(provider MetricsProvider, health Health, logger *slog.Logger) *Handlers {
	return &Handlers{
		provider: provider,
		health:   health,
		logger:   logger.With("component", "api-handlers"),
	}
}

// HandleHealth reports liveness plus the pricing parameters a client
// needs to interpret responses.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "ok",
		"cache_ttl_seconds":     int(types.MetricsCacheTTL.Seconds()),
		"stale_ttl_seconds":     int(types.StaleVWAPTTL.Seconds()),
		"credential_configured": h.health.CredentialConfigured,
		"cache_configured":      h.health.CacheConfigured,
		"vwap_windows_hours":    types.VWAPWindowsHours,
		"min_trades_for_vwap":   types.MinTradesForVWAP,
	})
}

// HandleIndex lists the available endpoints and the price tier legend.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "bellwether",
		"endpoints": map[string]string{
			"health":   "GET /health",
			"market":   "GET /api/metrics/{venue}/{id}",
			"combined": "GET /api/metrics/combined?pm_token=<token>&k_ticker=<ticker>",
			"legacy":   "GET /metrics/{id}",
		},
		"price_tiers": map[string]string{
			"1": "6h VWAP",
			"2": "12h or 24h VWAP",
			"3": "Order book midpoint",
			"4": "Last VWAP (stale), or no data",
		},
	})
}

// HandleMarketMetrics serves metrics for a single venue/market pair.
func (h *Handlers) HandleMarketMetrics(w http.ResponseWriter, r *http.Request) {
	venue, ok := types.ParseVenue(r.PathValue("venue"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown venue",
			"venue must be polymarket or kalshi")
		return
	}

	h.serveMarket(w, r, venue, r.PathValue("id"))
}

// HandleLegacyMetrics keeps the original polymarket-only path alive.
func (h *Handlers) HandleLegacyMetrics(w http.ResponseWriter, r *http.Request) {
	h.serveMarket(w, r, types.VenuePolymarket, r.PathValue("id"))
}

func (h *Handlers) serveMarket(w http.ResponseWriter, r *http.Request, venue types.Venue, id string) {
	record, err := h.provider.MarketMetrics(r.Context(), venue, id)
	if err != nil {
		if errors.Is(err, metrics.ErrBookUnavailable) {
			writeError(w, http.StatusNotFound, "No order book for market",
				"the venue returned no depth for this id; check the identifier")
			return
		}
		h.logger.Error("market metrics failed", "venue", venue, "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal error", "try again shortly")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// HandleCombined serves the cross-venue view. At least one market
// identifier is required; a missing venue is skipped, not an error.
func (h *Handlers) HandleCombined(w http.ResponseWriter, r *http.Request) {
	pmToken := r.URL.Query().Get("pm_token")
	kTicker := r.URL.Query().Get("k_ticker")

	if pmToken == "" && kTicker == "" {
		writeError(w, http.StatusBadRequest, "Missing identifiers",
			"provide pm_token, k_ticker, or both")
		return
	}

	writeJSON(w, http.StatusOK, h.provider.CombinedMetrics(r.Context(), pmToken, kTicker))
}

// HandleNotFound answers unmatched routes with a JSON 404.
func (h *Handlers) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found", "see GET / for the endpoint list")
}

type errorBody struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, hint string) {
	writeJSON(w, status, errorBody{Error: msg, Hint: hint})
}
