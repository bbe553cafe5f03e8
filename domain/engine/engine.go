package engine

import (
	"fmt"

	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Engine draws and evaluates outcomes. It never touches player state: every
// result is a function of the random source, the snapshot and the request.
type Engine struct {
	rng RandomSource
}

// New creates an engine reading from rng
func New(rng RandomSource) *Engine {
	if rng == nil {
		rng = NewCryptoSource()
	}
	return &Engine{rng: rng}
}

// PlaySlots draws a grid and scores it
func (e *Engine) PlaySlots(snap *policy.Snapshot, playCount int64, stake decimal.Decimal) (*entities.SlotsOutcome, error) {
	grid, err := DrawSlotGrid(&snap.Slots, e.rng)
	if err != nil {
		return nil, err
	}
	TraceState(entities.GameKindSlots, entities.BetStateDrawn, log.Fields{"grid": grid})

	out, err := EvaluateSlots(snap, playCount, stake, grid, e.rng)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate slots: %w", err)
	}
	TraceState(entities.GameKindSlots, entities.BetStateEvaluated, log.Fields{
		"multiplier": out.Multiplier,
		"lines":      len(out.Lines),
	})
	return out, nil
}

// PlayDice rolls and scores a dice bet
func (e *Engine) PlayDice(snap *policy.Snapshot, playCount int64, stake decimal.Decimal, target int) *entities.DiceOutcome {
	roll := RollDice(e.rng)
	TraceState(entities.GameKindDice, entities.BetStateDrawn, log.Fields{"roll": roll})

	out := EvaluateDice(snap, playCount, stake, target, roll, e.rng)
	TraceState(entities.GameKindDice, entities.BetStateEvaluated, log.Fields{
		"roll":       out.Roll,
		"multiplier": out.Multiplier,
		"gate":       out.Gate,
	})
	return out
}

// DrawCrashPoint draws the hidden crash point for a new session
func (e *Engine) DrawCrashPoint(snap *policy.Snapshot, playCount int64) decimal.Decimal {
	point, gate := DrawCrashPoint(snap, playCount, e.rng)
	TraceState(entities.GameKindCrash, entities.BetStateDrawn, log.Fields{"gate": gate})
	return point
}

// PlayRoulette spins once and scores every sub-bet
func (e *Engine) PlayRoulette(snap *policy.Snapshot, playCount int64, bet entities.RouletteBet) *entities.RouletteOutcome {
	number, position := SpinWheel(e.rng)
	TraceState(entities.GameKindRoulette, entities.BetStateDrawn, log.Fields{"spin": number})

	out := EvaluateRoulette(snap, playCount, bet, number, position, e.rng)
	TraceState(entities.GameKindRoulette, entities.BetStateEvaluated, log.Fields{
		"payout": out.Payout,
		"bets":   len(out.Bets),
	})
	return out
}

// TraceState logs a bet state transition at debug level
func TraceState(kind entities.GameKind, state entities.BetState, fields log.Fields) {
	if !log.IsLevelEnabled(log.DebugLevel) {
		return
	}
	fields["game"] = kind
	fields["state"] = state
	log.WithFields(fields).Debug("Bet state transition")
}
