package policy

import (
	"fmt"

	"casino/domain/entities"
)

// Snapshot is one immutable, versioned set of game tables and win-rate
// parameters. A snapshot is never mutated after Validate succeeds.
type Snapshot struct {
	Version  string         `yaml:"version"`
	Slots    SlotsConfig    `yaml:"slots"`
	Dice     DiceConfig     `yaml:"dice"`
	Crash    CrashConfig    `yaml:"crash"`
	Roulette RouletteConfig `yaml:"roulette"`

	// Checksum is the sha256 of the source document, filled in by Parse
	Checksum string `yaml:"-"`
	// Source is the raw document, kept for the audit table
	Source []byte `yaml:"-"`
}

// Stage adjusts odds for players whose play count is below UntilPlays.
// The final stage must have UntilPlays == 0 and covers everyone else.
type Stage struct {
	UntilPlays            int64   `yaml:"until_plays"`
	WinChanceAdjustment   float64 `yaml:"win_chance_adjustment"`
	ForcedLossProbability float64 `yaml:"forced_loss_probability"`
	LuckyWinProbability   float64 `yaml:"lucky_win_probability"`
	BigWinProbability     float64 `yaml:"big_win_probability"`
	BigWinBoost           float64 `yaml:"big_win_boost"`
}

// SymbolConfig is one reel symbol
type SymbolConfig struct {
	Name       string  `yaml:"name"`
	Weight     int     `yaml:"weight"`
	Multiplier float64 `yaml:"multiplier"`
}

type SlotsConfig struct {
	BaseWinChance  float64        `yaml:"base_win_chance"`
	PairWinChance  float64        `yaml:"pair_win_chance"`
	JackpotChance  float64        `yaml:"jackpot_chance"`
	Symbols        []SymbolConfig `yaml:"symbols"`
	PairMultiplier float64        `yaml:"pair_multiplier"`
	DiagonalBonus  float64        `yaml:"diagonal_bonus"`
	MiddleRowBonus float64        `yaml:"middle_row_bonus"`
	FullGridBonus  float64        `yaml:"full_grid_bonus"`
	Stages         []Stage        `yaml:"stages"`
}

type DiceConfig struct {
	HouseEdge float64 `yaml:"house_edge"`
	Stages    []Stage `yaml:"stages"`
}

type CrashConfig struct {
	HouseEdgeFactor         float64 `yaml:"house_edge_factor"`
	CurveExponent           float64 `yaml:"curve_exponent"`
	MaxMultiplier           float64 `yaml:"max_multiplier"`
	InstantCrashProbability float64 `yaml:"instant_crash_probability"`
	Stages                  []Stage `yaml:"stages"`
}

type RouletteConfig struct {
	Stages []Stage `yaml:"stages"`
}

// Validate rejects snapshots the evaluators cannot use
func (s *Snapshot) Validate() error {
	if s.Version == "" {
		return fmt.Errorf("version is required")
	}
	if err := s.Slots.validate(); err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	if err := s.Dice.validate(); err != nil {
		return fmt.Errorf("dice: %w", err)
	}
	if err := s.Crash.validate(); err != nil {
		return fmt.Errorf("crash: %w", err)
	}
	if err := validateStages(s.Roulette.Stages); err != nil {
		return fmt.Errorf("roulette: %w", err)
	}
	return nil
}

func (c *SlotsConfig) validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols configured", entities.ErrInternalGenerator)
	}
	seen := make(map[string]bool, len(c.Symbols))
	total := 0
	for _, sym := range c.Symbols {
		if sym.Name == "" || seen[sym.Name] {
			return fmt.Errorf("symbol name %q is empty or duplicated", sym.Name)
		}
		seen[sym.Name] = true
		if sym.Weight < 0 {
			return fmt.Errorf("symbol %s has negative weight", sym.Name)
		}
		if sym.Multiplier <= 0 {
			return fmt.Errorf("symbol %s must have a positive multiplier", sym.Name)
		}
		total += sym.Weight
	}
	if total == 0 {
		return fmt.Errorf("%w: symbol weights sum to zero", entities.ErrInternalGenerator)
	}
	for name, v := range map[string]float64{
		"base_win_chance": c.BaseWinChance,
		"pair_win_chance": c.PairWinChance,
		"jackpot_chance":  c.JackpotChance,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within [0,100], got %v", name, v)
		}
	}
	if c.PairMultiplier < 0 {
		return fmt.Errorf("pair_multiplier cannot be negative")
	}
	if c.DiagonalBonus < 1 || c.MiddleRowBonus < 1 {
		return fmt.Errorf("line bonuses must be at least 1")
	}
	// A full grid contains every line, so it must pay at least as much as the best one
	if c.FullGridBonus < c.DiagonalBonus || c.FullGridBonus < c.MiddleRowBonus {
		return fmt.Errorf("full_grid_bonus %v must be >= diagonal_bonus and middle_row_bonus", c.FullGridBonus)
	}
	return validateStages(c.Stages)
}

func (c *DiceConfig) validate() error {
	if c.HouseEdge < 0 || c.HouseEdge >= 100 {
		return fmt.Errorf("house_edge must be within [0,100), got %v", c.HouseEdge)
	}
	return validateStages(c.Stages)
}

func (c *CrashConfig) validate() error {
	if c.HouseEdgeFactor <= 0 || c.HouseEdgeFactor > 1 {
		return fmt.Errorf("house_edge_factor must be within (0,1], got %v", c.HouseEdgeFactor)
	}
	if c.CurveExponent <= 0 {
		return fmt.Errorf("curve_exponent must be positive")
	}
	if c.MaxMultiplier < 1 {
		return fmt.Errorf("max_multiplier must be at least 1")
	}
	if c.InstantCrashProbability < 0 || c.InstantCrashProbability > 1 {
		return fmt.Errorf("instant_crash_probability must be within [0,1]")
	}
	return validateStages(c.Stages)
}

func validateStages(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("at least one stage is required")
	}
	for i, st := range stages {
		last := i == len(stages)-1
		if last && st.UntilPlays != 0 {
			return fmt.Errorf("last stage must be open-ended (until_plays: 0)")
		}
		if !last {
			if st.UntilPlays <= 0 {
				return fmt.Errorf("stage %d: until_plays must be positive", i)
			}
			if i > 0 && st.UntilPlays <= stages[i-1].UntilPlays {
				return fmt.Errorf("stage %d: until_plays must be increasing", i)
			}
		}
		for name, p := range map[string]float64{
			"forced_loss_probability": st.ForcedLossProbability,
			"lucky_win_probability":   st.LuckyWinProbability,
			"big_win_probability":     st.BigWinProbability,
		} {
			if p < 0 || p > 1 {
				return fmt.Errorf("stage %d: %s must be within [0,1]", i, name)
			}
		}
		if st.BigWinBoost != 0 && st.BigWinBoost < 1 {
			return fmt.Errorf("stage %d: big_win_boost must be at least 1", i)
		}
	}
	return nil
}

// Symbol looks up a symbol by name
func (c *SlotsConfig) Symbol(name entities.Symbol) (SymbolConfig, bool) {
	for _, s := range c.Symbols {
		if s.Name == string(name) {
			return s, true
		}
	}
	return SymbolConfig{}, false
}
