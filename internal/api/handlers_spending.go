package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wallet-insight/internal/service"
	"github.com/wallet-insight/internal/types"
)

// handleAnalyzeSpending handles POST /api/v1/spending/analyze - classify
// a wallet's recent spending.
func (s *Server) handleAnalyzeSpending(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address    string `json:"address"`
		Blockchain string `json:"blockchain"`
		From       int64  `json:"from,omitempty"`
		To         int64  `json:"to,omitempty"`
	}

	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request body", nil)
		return
	}
	if req.Address == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Address is required", nil)
		return
	}

	chain, ok := types.ParseChainID(req.Blockchain)
	if !ok {
		respondError(w, http.StatusBadRequest, "UNSUPPORTED_CHAIN", "Unsupported blockchain: "+req.Blockchain, nil)
		return
	}

	profile, err := s.spending.Analyze(r.Context(), req.Address, chain, service.Window{From: req.From, To: req.To})
	if err != nil {
		if errors.Is(err, service.ErrNoData) {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"address": req.Address,
				"profile": nil,
				"message": "no transaction data for wallet",
			})
			return
		}
		s.logger.WithError(err).Error("Spending analysis failed")
		respondServiceError(w, err)
		return
	}

	if s.alerts != nil {
		s.alerts.AnnounceDemoWallet(r.Context(), profile)
	}

	respondJSON(w, http.StatusOK, profile)
}

// handleGetSpendingProfile handles GET /api/v1/spending/{address} -
// return the stored profile.
func (s *Server) handleGetSpendingProfile(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Address parameter required", nil)
		return
	}

	profile, err := s.profiles.Get(r.Context(), address)
	if err != nil {
		s.logger.WithError(err).Error("Profile lookup failed")
		respondServiceError(w, err)
		return
	}
	if profile == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "No spending profile for wallet", nil)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
