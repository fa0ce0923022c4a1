package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"origination-engine/internal/pkg/apperrors"
	"origination-engine/internal/rates"
)

type RatesHandler struct {
	service rates.RatesService
	logger  *slog.Logger
}

func NewRatesHandler(s rates.RatesService, l *slog.Logger) *RatesHandler {
	if s == nil {
		panic("rates service cannot be nil")
	}
	return &RatesHandler{
		service: s,
		logger:  l.With("component", "RatesHandler"),
	}
}

// GetRates handles GET /api/rates.
func (h *RatesHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Current())
}

// GetMarketData handles GET /api/market-data?series=name.
func (h *RatesHandler) GetMarketData(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("series")
	if name == "" {
		respondError(w, fmt.Errorf("%w: series query parameter is required", apperrors.ErrInvalidArgument))
		return
	}

	series, err := h.service.MarketData(r.Context(), name)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Market data fetch failed", "series", name, slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, series)
}
