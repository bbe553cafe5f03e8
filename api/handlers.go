package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"casino/domain/entities"
	"casino/domain/interfaces"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

// GameHandler serves the game and ledger endpoints
type GameHandler struct {
	games interfaces.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games interfaces.GameService) *GameHandler {
	return &GameHandler{games: games}
}

func (h *GameHandler) Slots(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerID(r.Context())
	payload, err := decode[SlotsRequest](w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.games.PlaceSlots(r.Context(), entities.SlotsBet{PlayerID: playerID, Stake: payload.Stake})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlotsResponse(result))
}

func (h *GameHandler) Dice(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerID(r.Context())
	payload, err := decode[DiceRequest](w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.games.PlaceDice(r.Context(), entities.DiceBet{
		PlayerID: playerID,
		Stake:    payload.Stake,
		Target:   payload.Target,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiceResponse(result))
}

func (h *GameHandler) CrashStart(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerID(r.Context())
	payload, err := decode[CrashStartRequest](w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.games.StartCrash(r.Context(), entities.CrashStartBet{
		PlayerID:    playerID,
		Stake:       payload.Stake,
		AutoCashout: payload.AutoCashout,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCrashStartResponse(result))
}

func (h *GameHandler) CrashCashout(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerID(r.Context())
	payload, err := decode[CrashCashoutRequest](w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.games.CashoutCrash(r.Context(), entities.CrashCashout{
		PlayerID:   playerID,
		SessionID:  payload.SessionID,
		Multiplier: payload.Multiplier,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCrashCashoutResponse(result))
}

func (h *GameHandler) Roulette(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerID(r.Context())
	payload, err := decode[RouletteRequest](w, r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	result, err := h.games.PlaceRoulette(r.Context(), entities.RouletteBet{PlayerID: playerID, Bets: payload.Bets})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRouletteResponse(result))
}

// Ledger lists the caller's own ledger rows. Query: game, limit, before (RFC 3339).
func (h *GameHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	playerID, _ := PlayerID(r.Context())
	query := r.URL.Query()

	var filter entities.LedgerFilter
	if game := query.Get("game"); game != "" {
		kind := entities.GameKind(game)
		if !kind.Valid() {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown game", Field: "game"})
			return
		}
		filter.GameKind = &kind
	}
	if limit := query.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "must be a positive integer", Field: "limit"})
			return
		}
		filter.Limit = n
	}
	if before := query.Get("before"); before != "" {
		t, err := time.Parse(time.RFC3339, before)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "must be an RFC 3339 timestamp", Field: "before"})
			return
		}
		filter.Before = &t
	}

	entries, err := h.games.History(r.Context(), playerID, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerResponse(entries))
}

// Policy returns the active policy version only
func (h *GameHandler) Policy(w http.ResponseWriter, r *http.Request) {
	version, err := h.games.PolicyVersion()
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PolicyResponse{Version: version})
}

func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.Healthy(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
