package engine

import (
	"fmt"
	"math"

	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
)

// SimulationReport summarizes a Monte Carlo run of one game
type SimulationReport struct {
	Game        entities.GameKind
	Rounds      int
	Wins        int
	TotalStake  decimal.Decimal
	TotalPayout decimal.Decimal
	// MaxMultiplier is the largest multiplier seen in the run
	MaxMultiplier decimal.Decimal
}

// WinRate returns wins / rounds
func (r SimulationReport) WinRate() float64 {
	if r.Rounds == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Rounds)
}

// RTP returns total payout / total stake
func (r SimulationReport) RTP() float64 {
	if r.TotalStake.IsZero() {
		return 0
	}
	rtp, _ := r.TotalPayout.Div(r.TotalStake).Float64()
	return rtp
}

// StdErr is the binomial standard error of the win rate
func (r SimulationReport) StdErr() float64 {
	if r.Rounds == 0 {
		return 0
	}
	p := r.WinRate()
	return math.Sqrt(p * (1 - p) / float64(r.Rounds))
}

// SimulationParams configures Simulate
type SimulationParams struct {
	Game      entities.GameKind
	Rounds    int
	PlayCount int64
	Stake     decimal.Decimal
	// DiceTarget is used for dice runs
	DiceTarget int
	// CrashCashout is the multiplier every simulated crash round claims
	CrashCashout decimal.Decimal
	// RouletteBets is used for roulette runs
	RouletteBets []entities.RouletteSubBet
}

// Simulate plays params.Rounds rounds against snap without touching any
// account. Used to check a policy file's return-to-player before rollout.
func (e *Engine) Simulate(snap *policy.Snapshot, params SimulationParams) (SimulationReport, error) {
	report := SimulationReport{
		Game:          params.Game,
		Rounds:        params.Rounds,
		TotalStake:    decimal.Zero,
		TotalPayout:   decimal.Zero,
		MaxMultiplier: decimal.Zero,
	}
	if params.Rounds <= 0 {
		return report, fmt.Errorf("rounds must be positive")
	}

	for i := 0; i < params.Rounds; i++ {
		var out entities.Outcome
		switch params.Game {
		case entities.GameKindSlots:
			slots, err := e.slotsRound(snap, params.PlayCount, params.Stake)
			if err != nil {
				return report, err
			}
			out = slots
		case entities.GameKindDice:
			out = EvaluateDice(snap, params.PlayCount, params.Stake, params.DiceTarget, RollDice(e.rng), e.rng)
		case entities.GameKindCrash:
			point, _ := DrawCrashPoint(snap, params.PlayCount, e.rng)
			session := &entities.CrashSession{Stake: params.Stake, CrashPoint: point}
			out = resolveSimulatedCrash(session, params.CrashCashout)
		case entities.GameKindRoulette:
			number, position := SpinWheel(e.rng)
			out = EvaluateRoulette(snap, params.PlayCount, entities.RouletteBet{Bets: params.RouletteBets}, number, position, e.rng)
		default:
			return report, fmt.Errorf("cannot simulate game %q", params.Game)
		}

		report.TotalStake = report.TotalStake.Add(out.TotalStake())
		report.TotalPayout = report.TotalPayout.Add(out.TotalPayout())
		if out.Won() {
			report.Wins++
		}
		if out.TotalMultiplier().GreaterThan(report.MaxMultiplier) {
			report.MaxMultiplier = out.TotalMultiplier()
		}
	}
	return report, nil
}

func (e *Engine) slotsRound(snap *policy.Snapshot, playCount int64, stake decimal.Decimal) (*entities.SlotsOutcome, error) {
	grid, err := DrawSlotGrid(&snap.Slots, e.rng)
	if err != nil {
		return nil, err
	}
	return EvaluateSlots(snap, playCount, stake, grid, e.rng)
}

func resolveSimulatedCrash(session *entities.CrashSession, claimed decimal.Decimal) *entities.CrashOutcome {
	out := &entities.CrashOutcome{
		Stake:      session.Stake,
		CrashPoint: session.CrashPoint,
		Claimed:    claimed,
		Multiplier: decimal.Zero,
		Payout:     decimal.Zero,
	}
	if session.Survives(claimed) {
		out.Win = true
		out.Multiplier = entities.NormalizeMultiplier(claimed)
		out.Payout = entities.PayoutFor(session.Stake, out.Multiplier)
	}
	return out
}
