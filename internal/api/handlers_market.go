package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/types"
)

// parseDays reads the days query parameter, defaulting to 30.
func parseDays(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 30, true
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return 0, false
	}
	return days, true
}

// handleMarketHistory handles GET /api/v1/market/{coin}/history?days=.
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	coin := mux.Vars(r)["coin"]
	days, ok := parseDays(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid days", nil)
		return
	}

	points := s.market.History(r.Context(), coin, days)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coin":   coin,
		"days":   days,
		"prices": points,
		"count":  len(points),
	})
}

// handleMarketRisk handles GET /api/v1/market/{coin}/risk?days= -
// compute risk metrics over the coin's price history.
func (s *Server) handleMarketRisk(w http.ResponseWriter, r *http.Request) {
	coin := mux.Vars(r)["coin"]
	days, ok := parseDays(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid days", nil)
		return
	}

	points := s.market.History(r.Context(), coin, days)
	if len(points) == 0 {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No price history for coin", nil)
		return
	}

	metrics := service.CalculateRiskMetrics(points)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coin":    coin,
		"days":    days,
		"samples": len(points),
		"metrics": metrics,
	})
}

// handleMarketSignal handles GET /api/v1/market/{coin}/signal?days=.
func (s *Server) handleMarketSignal(w http.ResponseWriter, r *http.Request) {
	coin := mux.Vars(r)["coin"]
	days, ok := parseDays(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid days", nil)
		return
	}

	signal, price := s.market.TrendSignal(r.Context(), coin, days)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"coin":   coin,
		"signal": signal,
		"price":  price,
	})
}

// handleRecommendation handles GET /api/v1/recommendation?wallet=&blockchain=.
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	wallet := r.URL.Query().Get("wallet")
	if wallet == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Query parameter 'wallet' is required", nil)
		return
	}

	chain, ok := types.ParseChainID(r.URL.Query().Get("blockchain"))
	if !ok {
		respondError(w, http.StatusBadRequest, "UNSUPPORTED_CHAIN", "Query parameter 'blockchain' must name a supported chain", nil)
		return
	}

	advice, err := s.recommender.Recommend(r.Context(), wallet, chain)
	if err != nil {
		s.logger.WithError(err).Error("Recommendation failed")
		respondServiceError(w, err)
		return
	}

	if s.alerts != nil {
		s.alerts.AnnounceRecommendation(r.Context(), advice)
	}

	respondJSON(w, http.StatusOK, advice)
}
