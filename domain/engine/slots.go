package engine

import (
	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
)

type cell struct{ row, col int }

type payline struct {
	name     entities.SlotLine
	cells    [3]cell
	diagonal bool
	middle   bool
}

var paylines = []payline{
	{name: entities.SlotLineTopRow, cells: [3]cell{{0, 0}, {0, 1}, {0, 2}}},
	{name: entities.SlotLineMiddleRow, cells: [3]cell{{1, 0}, {1, 1}, {1, 2}}, middle: true},
	{name: entities.SlotLineBottomRow, cells: [3]cell{{2, 0}, {2, 1}, {2, 2}}},
	{name: entities.SlotLineLeftCol, cells: [3]cell{{0, 0}, {1, 0}, {2, 0}}},
	{name: entities.SlotLineCenterCol, cells: [3]cell{{0, 1}, {1, 1}, {2, 1}}},
	{name: entities.SlotLineRightCol, cells: [3]cell{{0, 2}, {1, 2}, {2, 2}}},
	{name: entities.SlotLineDiagonal, cells: [3]cell{{0, 0}, {1, 1}, {2, 2}}, diagonal: true},
	{name: entities.SlotLineAntiDiag, cells: [3]cell{{2, 0}, {1, 1}, {0, 2}}, diagonal: true},
}

// lineMatch classifies a payline: a triple, exactly two of a kind, or nothing
func lineMatch(grid entities.SlotGrid, line payline) (entities.Symbol, string) {
	a := grid[line.cells[0].row][line.cells[0].col]
	b := grid[line.cells[1].row][line.cells[1].col]
	c := grid[line.cells[2].row][line.cells[2].col]
	switch {
	case a == b && b == c:
		return a, entities.SlotMatchTriple
	case a == b || a == c:
		return a, entities.SlotMatchPair
	case b == c:
		return b, entities.SlotMatchPair
	}
	return "", ""
}

// fullGrid reports whether all nine cells show the same symbol
func fullGrid(grid entities.SlotGrid) (entities.Symbol, bool) {
	first := grid[0][0]
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			if grid[row][col] != first {
				return "", false
			}
		}
	}
	return first, true
}

// EvaluateSlots scores a drawn grid. A paying full grid replaces the line
// evaluation; otherwise each of the eight lines pays independently and the
// total multiplier is the sum of the paying lines.
func EvaluateSlots(snap *policy.Snapshot, playCount int64, stake decimal.Decimal, grid entities.SlotGrid, rng RandomSource) (*entities.SlotsOutcome, error) {
	cfg := &snap.Slots
	out := &entities.SlotsOutcome{
		Stake:      stake,
		Grid:       grid,
		Lines:      []entities.SlotLineWin{},
		Multiplier: decimal.Zero,
	}

	if sym, ok := fullGrid(grid); ok && policy.Chance(snap.JackpotChance(), rng) {
		symCfg, found := cfg.Symbol(sym)
		if !found {
			return nil, entities.ErrInternalGenerator
		}
		mult := decimal.NewFromFloat(symCfg.Multiplier).Mul(decimal.NewFromFloat(cfg.FullGridBonus))
		out.Gates = append(out.Gates, entities.GateJackpot)
		if snap.IsBigWin(entities.GameKindSlots, playCount, rng) {
			mult = mult.Mul(decimal.NewFromFloat(snap.BigWinBoost(entities.GameKindSlots, playCount)))
			out.Gates = append(out.Gates, entities.GateBigWin)
		}
		mult = entities.NormalizeMultiplier(mult)

		out.FullGrid = true
		out.Lines = append(out.Lines, entities.SlotLineWin{
			Line:       entities.SlotLineFullGrid,
			Symbol:     sym,
			Match:      entities.SlotMatchFull,
			Multiplier: mult,
		})
		out.Multiplier = mult
		out.Payout = entities.PayoutFor(stake, mult)
		return out, nil
	}

	winChance := snap.AdjustedWinChance(entities.GameKindSlots, playCount)
	pairChance := snap.PairWinChance(playCount)

	for _, line := range paylines {
		sym, match := lineMatch(grid, line)

		var mult decimal.Decimal
		switch match {
		case entities.SlotMatchTriple:
			if !policy.Chance(winChance, rng) {
				continue
			}
			symCfg, found := cfg.Symbol(sym)
			if !found {
				return nil, entities.ErrInternalGenerator
			}
			mult = decimal.NewFromFloat(symCfg.Multiplier)
			if line.diagonal {
				mult = mult.Mul(decimal.NewFromFloat(cfg.DiagonalBonus))
			}
			if line.middle {
				mult = mult.Mul(decimal.NewFromFloat(cfg.MiddleRowBonus))
			}
		case entities.SlotMatchPair:
			if cfg.PairMultiplier <= 0 || !policy.Chance(pairChance, rng) {
				continue
			}
			mult = decimal.NewFromFloat(cfg.PairMultiplier)
		default:
			continue
		}

		mult = entities.NormalizeMultiplier(mult)
		out.Lines = append(out.Lines, entities.SlotLineWin{
			Line:       line.name,
			Symbol:     sym,
			Match:      match,
			Multiplier: mult,
		})
		out.Multiplier = out.Multiplier.Add(mult)
	}

	out.Payout = entities.PayoutFor(stake, out.Multiplier)
	return out, nil
}
