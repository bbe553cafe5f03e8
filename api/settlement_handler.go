package api

import (
	"net/http"

	"casino/domain/entities"
	"casino/domain/interfaces"
)

// SettlementHandler lets external games such as blackjack settle through the
// ledger. It is mounted behind RequireService; the account comes from the body.
type SettlementHandler struct {
	settlements interfaces.SettlementService
}

func NewSettlementHandler(settlements interfaces.SettlementService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

func (h *SettlementHandler) Settle(w http.ResponseWriter, r *http.Request) {
	payload, err := decode[SettlementRequest](w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if payload.AccountID <= 0 {
		writeBadRequest(w, "account_id is required")
		return
	}
	if payload.Reference == "" {
		writeBadRequest(w, "reference is required")
		return
	}

	result, err := h.settlements.Settle(r.Context(), interfaces.SettlementRequest{
		AccountID: payload.AccountID,
		GameKind:  entities.GameKindExternal,
		Stake:     payload.Stake,
		Payout:    payload.Payout,
		Detail:    payload.Detail,
		Reference: payload.Reference,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SettlementResponse{LedgerID: result.LedgerID, Balance: result.BalanceAfter})
}
