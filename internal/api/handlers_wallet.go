package api

import (
	"net/http"
	"strconv"

	"github.com/wallet-insight/internal/types"
)

// handleDetectWallets handles POST /api/v1/wallets/detect - run an
// aggregation pass over a chain's latest activity.
func (s *Server) handleDetectWallets(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Blockchain string `json:"blockchain"`
		Filter     string `json:"filter,omitempty"`
		SkipDemo   bool   `json:"skip_demo,omitempty"`
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

	result, err := s.detection.Detect(r.Context(), chain, types.ParseFilterType(req.Filter), req.SkipDemo)
	if err != nil {
		s.logger.WithError(err).Error("Detection run failed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleListWallets handles GET /api/v1/wallets?blockchain= - list
// persisted wallets in ranked order.
func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	chain, ok := types.ParseChainID(r.URL.Query().Get("blockchain"))
	if !ok {
		respondError(w, http.StatusBadRequest, "UNSUPPORTED_CHAIN", "Query parameter 'blockchain' is required and must name a supported chain", nil)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid limit", nil)
			return
		}
		limit = parsed
	}

	wallets, err := s.wallets.ListByChain(r.Context(), chain, limit)
	if err != nil {
		s.logger.WithError(err).Error("Wallet listing failed")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"blockchain": chain,
		"wallets":    wallets,
		"count":      len(wallets),
	})
}
