package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wallet-insight/internal/types"
)

// handleRegisterUser handles POST /api/v1/users/register - register a
// username with its wallet. Usernames are write-once.
func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username      string `json:"username"`
		WalletAddress string `json:"wallet_address"`
		Blockchain    string `json:"blockchain"`
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

	reg, err := s.registrations.Register(r.Context(), req.Username, req.WalletAddress, chain)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.alerts != nil {
		s.alerts.AnnounceRegistration(r.Context(), reg)
	}

	respondJSON(w, http.StatusCreated, reg)
}

// handleGetUser handles GET /api/v1/users/{username}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := mux.Vars(r)["username"]
	if username == "" {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "Username required", nil)
		return
	}

	reg, err := s.registrations.Lookup(r.Context(), username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, reg)
}
