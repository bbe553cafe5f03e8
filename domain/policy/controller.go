package policy

import "casino/domain/entities"

// Roller supplies uniform floats in [0,1) for probabilistic gates
type Roller interface {
	Float64() float64
}

// stages returns the stage table for a game kind
func (s *Snapshot) stages(kind entities.GameKind) []Stage {
	switch kind {
	case entities.GameKindSlots:
		return s.Slots.Stages
	case entities.GameKindDice:
		return s.Dice.Stages
	case entities.GameKindCrash:
		return s.Crash.Stages
	case entities.GameKindRoulette:
		return s.Roulette.Stages
	}
	return nil
}

// StageFor returns the onboarding stage that applies at playCount
func (s *Snapshot) StageFor(kind entities.GameKind, playCount int64) Stage {
	stages := s.stages(kind)
	for _, st := range stages {
		if st.UntilPlays == 0 || playCount < st.UntilPlays {
			return st
		}
	}
	if len(stages) > 0 {
		return stages[len(stages)-1]
	}
	return Stage{}
}

// AdjustedWinChance returns the line win chance in percent, always within [0,100]
func (s *Snapshot) AdjustedWinChance(kind entities.GameKind, playCount int64) float64 {
	base := 0.0
	if kind == entities.GameKindSlots {
		base = s.Slots.BaseWinChance
	}
	return clamp(base+s.StageFor(kind, playCount).WinChanceAdjustment, 0, 100)
}

// PairWinChance returns the slots pair-line win chance in percent
func (s *Snapshot) PairWinChance(playCount int64) float64 {
	return clamp(s.Slots.PairWinChance+s.StageFor(entities.GameKindSlots, playCount).WinChanceAdjustment, 0, 100)
}

// JackpotChance returns the slots full-grid payout chance in percent
func (s *Snapshot) JackpotChance() float64 {
	return clamp(s.Slots.JackpotChance, 0, 100)
}

// EffectiveHouseEdge returns the dice house edge in percent after the stage
// adjustment, within [0,99]
func (s *Snapshot) EffectiveHouseEdge(playCount int64) float64 {
	return clamp(s.Dice.HouseEdge-s.StageFor(entities.GameKindDice, playCount).WinChanceAdjustment, 0, 99)
}

// IsBigWin draws the big-win gate
func (s *Snapshot) IsBigWin(kind entities.GameKind, playCount int64, r Roller) bool {
	return r.Float64() < s.StageFor(kind, playCount).BigWinProbability
}

// BigWinBoost returns the multiplier boost for a big win, never below 1
func (s *Snapshot) BigWinBoost(kind entities.GameKind, playCount int64) float64 {
	if boost := s.StageFor(kind, playCount).BigWinBoost; boost > 1 {
		return boost
	}
	return 1
}

// ForcedLoss draws the forced-loss gate
func (s *Snapshot) ForcedLoss(kind entities.GameKind, playCount int64, r Roller) bool {
	return r.Float64() < s.StageFor(kind, playCount).ForcedLossProbability
}

// LuckyWin draws the lucky-win gate
func (s *Snapshot) LuckyWin(kind entities.GameKind, playCount int64, r Roller) bool {
	return r.Float64() < s.StageFor(kind, playCount).LuckyWinProbability
}

// InstantCrashProbability is the configured instant crash chance plus the
// stage forced-loss probability, capped at 1
func (s *Snapshot) InstantCrashProbability(playCount int64) float64 {
	p := s.Crash.InstantCrashProbability + s.StageFor(entities.GameKindCrash, playCount).ForcedLossProbability
	return clamp(p, 0, 1)
}

// Chance reports whether a percentage gate passes
func Chance(percent float64, r Roller) bool {
	return r.Float64()*100 < percent
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
