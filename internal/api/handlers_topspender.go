package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wallet-insight/internal/types"
)

// handleTopSpenderScan handles POST /api/v1/topspender/scan - find the
// biggest spender for a day on a chain.
func (s *Server) handleTopSpenderScan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Blockchain string `json:"blockchain"`
		Day        string `json:"day,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}

	chain, ok := types.ParseChainID(req.Blockchain)
	if !ok {
		respondError(w, http.StatusBadRequest, "UNSUPPORTED_CHAIN", "Unsupported blockchain: "+req.Blockchain, nil)
		return
	}

	spender, err := s.topSpenders.Scan(r.Context(), chain, req.Day)
	if err != nil {
		s.logger.WithError(err).Error("Top spender scan failed")
		respondServiceError(w, err)
		return
	}
	if spender == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"blockchain": chain,
			"result":     nil,
			"message":    "no spending recorded for the day",
		})
		return
	}

	if s.alerts != nil {
		s.alerts.AnnounceTopSpender(r.Context(), spender)
	}

	respondJSON(w, http.StatusOK, spender)
}

// handleTopSpenderForDay handles GET /api/v1/topspender/{day}.
func (s *Server) handleTopSpenderForDay(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]

	spender, err := s.topSpenders.ForDay(r.Context(), day)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if spender == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No top spender recorded for day", nil)
		return
	}

	respondJSON(w, http.StatusOK, spender)
}
