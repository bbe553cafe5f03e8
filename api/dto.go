package api

import (
	"time"

	"casino/domain/entities"
	"casino/domain/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SlotsRequest struct {
	Stake decimal.Decimal `json:"stake"`
}

type DiceRequest struct {
	Stake  decimal.Decimal `json:"stake"`
	Target int             `json:"target"`
}

type CrashStartRequest struct {
	Stake       decimal.Decimal  `json:"stake"`
	AutoCashout *decimal.Decimal `json:"auto_cashout,omitempty"`
}

type CrashCashoutRequest struct {
	SessionID  uuid.UUID       `json:"session_id"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type RouletteRequest struct {
	Bets []entities.RouletteSubBet `json:"bets"`
}

// SettlementRequest is posted by games resolved outside the engine
type SettlementRequest struct {
	AccountID int64           `json:"account_id"`
	Stake     decimal.Decimal `json:"stake"`
	Payout    decimal.Decimal `json:"payout"`
	Reference string          `json:"reference"`
	Detail    map[string]any  `json:"detail,omitempty"`
}

type SettlementResponse struct {
	LedgerID int64           `json:"ledger_id"`
	Balance  decimal.Decimal `json:"balance"`
}

type SlotLineResponse struct {
	Line       entities.SlotLine `json:"line"`
	Symbol     entities.Symbol   `json:"symbol"`
	Multiplier decimal.Decimal   `json:"multiplier"`
}

type SlotsResponse struct {
	LedgerID     int64              `json:"ledger_id"`
	Grid         entities.SlotGrid  `json:"grid"`
	WinningLines []SlotLineResponse `json:"winning_lines"`
	Multiplier   decimal.Decimal    `json:"multiplier"`
	Payout       decimal.Decimal    `json:"payout"`
	IsWin        bool               `json:"is_win"`
	Balance      decimal.Decimal    `json:"balance"`
}

type DiceResponse struct {
	LedgerID   int64           `json:"ledger_id"`
	Target     int             `json:"target"`
	Roll       int             `json:"roll"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	IsWin      bool            `json:"is_win"`
	Balance    decimal.Decimal `json:"balance"`
}

// CrashStartResponse deliberately has no crash point field
type CrashStartResponse struct {
	SessionID uuid.UUID       `json:"session_id"`
	Stake     decimal.Decimal `json:"stake"`
	Balance   decimal.Decimal `json:"balance"`
}

type CrashCashoutResponse struct {
	LedgerID   int64           `json:"ledger_id"`
	SessionID  uuid.UUID       `json:"session_id"`
	Claimed    decimal.Decimal `json:"claimed"`
	CrashPoint decimal.Decimal `json:"crash_point"`
	Expired    bool            `json:"expired"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	IsWin      bool            `json:"is_win"`
	Balance    decimal.Decimal `json:"balance"`
}

type RouletteBetResponse struct {
	Bet        entities.RouletteSubBet `json:"bet"`
	IsWin      bool                    `json:"is_win"`
	Multiplier decimal.Decimal         `json:"multiplier"`
	Payout     decimal.Decimal         `json:"payout"`
}

type RouletteResponse struct {
	LedgerID        int64                  `json:"ledger_id"`
	Spin            int                    `json:"spin"`
	Color           entities.RouletteColor `json:"color"`
	Bets            []RouletteBetResponse  `json:"bets"`
	TotalStake      decimal.Decimal        `json:"total_stake"`
	TotalMultiplier decimal.Decimal        `json:"total_multiplier"`
	TotalPayout     decimal.Decimal        `json:"total_payout"`
	AnyWin          bool                   `json:"any_win"`
	Balance         decimal.Decimal        `json:"balance"`
}

type LedgerEntryResponse struct {
	ID            int64             `json:"id"`
	Game          entities.GameKind `json:"game"`
	Stake         decimal.Decimal   `json:"stake"`
	Multiplier    decimal.Decimal   `json:"multiplier"`
	Payout        decimal.Decimal   `json:"payout"`
	IsWin         bool              `json:"is_win"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	PolicyVersion string            `json:"policy_version"`
	SessionID     *uuid.UUID        `json:"session_id,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

type PolicyResponse struct {
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Gates stay in the ledger detail and are never returned to the player

func toSlotsResponse(r *interfaces.SlotsResult) SlotsResponse {
	lines := make([]SlotLineResponse, 0, len(r.Outcome.Lines))
	for _, l := range r.Outcome.Lines {
		lines = append(lines, SlotLineResponse{Line: l.Line, Symbol: l.Symbol, Multiplier: l.Multiplier})
	}
	return SlotsResponse{
		LedgerID:     r.LedgerID,
		Grid:         r.Outcome.Grid,
		WinningLines: lines,
		Multiplier:   r.Outcome.Multiplier,
		Payout:       r.Outcome.Payout,
		IsWin:        r.Outcome.Won(),
		Balance:      r.Balance,
	}
}

func toDiceResponse(r *interfaces.DiceResult) DiceResponse {
	return DiceResponse{
		LedgerID:   r.LedgerID,
		Target:     r.Outcome.Target,
		Roll:       r.Outcome.Roll,
		Multiplier: r.Outcome.Multiplier,
		Payout:     r.Outcome.Payout,
		IsWin:      r.Outcome.Win,
		Balance:    r.Balance,
	}
}

func toCrashStartResponse(r *interfaces.CrashStartResult) CrashStartResponse {
	return CrashStartResponse{
		SessionID: r.SessionID,
		Stake:     r.Stake,
		Balance:   r.Balance,
	}
}

func toCrashCashoutResponse(r *interfaces.CrashCashoutResult) CrashCashoutResponse {
	return CrashCashoutResponse{
		LedgerID:   r.LedgerID,
		SessionID:  r.Outcome.SessionID,
		Claimed:    r.Outcome.Claimed,
		CrashPoint: r.Outcome.CrashPoint,
		Expired:    r.Outcome.Expired,
		Multiplier: r.Outcome.Multiplier,
		Payout:     r.Outcome.Payout,
		IsWin:      r.Outcome.Win,
		Balance:    r.Balance,
	}
}

func toRouletteResponse(r *interfaces.RouletteResult) RouletteResponse {
	bets := make([]RouletteBetResponse, 0, len(r.Outcome.Bets))
	for _, b := range r.Outcome.Bets {
		bets = append(bets, RouletteBetResponse{
			Bet:        b.Bet,
			IsWin:      b.Win,
			Multiplier: b.Multiplier,
			Payout:     b.Payout,
		})
	}
	return RouletteResponse{
		LedgerID:        r.LedgerID,
		Spin:            r.Outcome.Spin,
		Color:           r.Outcome.Color,
		Bets:            bets,
		TotalStake:      r.Outcome.Stake,
		TotalMultiplier: r.Outcome.Multiplier,
		TotalPayout:     r.Outcome.Payout,
		AnyWin:          r.Outcome.AnyWin,
		Balance:         r.Balance,
	}
}

func toLedgerResponse(entries []*entities.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, LedgerEntryResponse{
			ID:            e.ID,
			Game:          e.GameKind,
			Stake:         e.Stake,
			Multiplier:    e.Multiplier,
			Payout:        e.Payout,
			IsWin:         e.IsWin,
			BalanceAfter:  e.BalanceAfter,
			PolicyVersion: e.PolicyVersion,
			SessionID:     e.SessionID,
			CreatedAt:     e.CreatedAt,
		})
	}
	return out
}
