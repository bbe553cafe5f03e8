package engine

import (
	"fmt"
	"math"

	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
)

// European single-zero wheel, clockwise from zero
var wheelOrder = [37]int{
	0, 32, 15, 19, 4, 21, 2, 25, 17, 34, 6, 27, 13, 36, 11, 30, 8, 23, 10,
	5, 24, 16, 33, 1, 20, 14, 31, 9, 22, 18, 29, 7, 28, 12, 35, 3, 26,
}

var redNumbers = map[int]bool{
	1: true, 3: true, 5: true, 7: true, 9: true, 12: true, 14: true, 16: true, 18: true,
	19: true, 21: true, 23: true, 25: true, 27: true, 30: true, 32: true, 34: true, 36: true,
}

// PickSymbol draws one symbol with probability weight / Σweights
func PickSymbol(symbols []policy.SymbolConfig, rng RandomSource) (entities.Symbol, error) {
	total := 0
	for _, s := range symbols {
		if s.Weight > 0 {
			total += s.Weight
		}
	}
	if total <= 0 {
		return "", fmt.Errorf("%w: symbol weights sum to zero", entities.ErrInternalGenerator)
	}

	roll := rng.IntN(total)
	for _, s := range symbols {
		if s.Weight <= 0 {
			continue
		}
		if roll < s.Weight {
			return entities.Symbol(s.Name), nil
		}
		roll -= s.Weight
	}
	return "", fmt.Errorf("%w: weighted pick fell through", entities.ErrInternalGenerator)
}

// DrawSlotGrid fills a 3×3 grid with independent weighted draws
func DrawSlotGrid(cfg *policy.SlotsConfig, rng RandomSource) (entities.SlotGrid, error) {
	var grid entities.SlotGrid
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			sym, err := PickSymbol(cfg.Symbols, rng)
			if err != nil {
				return grid, err
			}
			grid[row][col] = sym
		}
	}
	return grid, nil
}

// RollDice returns a uniform integer in [1,100]
func RollDice(rng RandomSource) int {
	return rng.IntN(100) + 1
}

// SpinWheel returns the winning number and its wheel position
func SpinWheel(rng RandomSource) (number, position int) {
	position = rng.IntN(len(wheelOrder))
	return wheelOrder[position], position
}

// ColorOf returns the pocket color for a wheel number
func ColorOf(number int) entities.RouletteColor {
	switch {
	case number == 0:
		return entities.RouletteColorGreen
	case redNumbers[number]:
		return entities.RouletteColorRed
	default:
		return entities.RouletteColorBlack
	}
}

// CrashPointFromUniform maps u ∈ [0,1) onto the crash curve
// factor / (1 − u^k), floored to two decimals and clamped to [1, max]
func CrashPointFromUniform(cfg *policy.CrashConfig, u float64) decimal.Decimal {
	point := cfg.HouseEdgeFactor / (1 - math.Pow(u, cfg.CurveExponent))
	if math.IsNaN(point) || math.IsInf(point, 0) || point > cfg.MaxMultiplier {
		point = cfg.MaxMultiplier
	}
	if point < 1 {
		point = 1
	}
	return decimal.NewFromFloat(point).Truncate(entities.MoneyPlaces)
}

// DrawCrashPoint draws the hidden crash point for a new session
func DrawCrashPoint(snap *policy.Snapshot, playCount int64, rng RandomSource) (decimal.Decimal, entities.Gate) {
	point := CrashPointFromUniform(&snap.Crash, rng.Float64())
	if rng.Float64() < snap.InstantCrashProbability(playCount) {
		return decimal.NewFromInt(1), entities.GateInstant
	}
	return point, entities.GateNone
}
