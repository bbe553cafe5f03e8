package engine

import (
	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiceMultiplier returns (100 − edge) / target truncated to four decimals
func DiceMultiplier(houseEdge float64, target int) decimal.Decimal {
	return entities.NormalizeMultiplier(
		hundred.Sub(decimal.NewFromFloat(houseEdge)).Div(decimal.NewFromInt(int64(target))),
	)
}

// EvaluateDice scores a roll against the target. A win can be overridden by
// the forced-loss gate, in which case the roll is redrawn above the target so
// the recorded roll always agrees with the result.
func EvaluateDice(snap *policy.Snapshot, playCount int64, stake decimal.Decimal, target, roll int, rng RandomSource) *entities.DiceOutcome {
	out := &entities.DiceOutcome{
		Stake:      stake,
		Target:     target,
		Roll:       roll,
		Multiplier: decimal.Zero,
		Payout:     decimal.Zero,
	}

	if roll > target {
		return out
	}

	if snap.ForcedLoss(entities.GameKindDice, playCount, rng) {
		out.Roll = target + 1 + rng.IntN(100-target)
		out.Gate = entities.GateForcedLoss
		return out
	}

	out.Win = true
	out.Multiplier = DiceMultiplier(snap.EffectiveHouseEdge(playCount), target)
	out.Payout = entities.PayoutFor(stake, out.Multiplier)
	return out
}
