package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DiceMinTarget = 1
	DiceMaxTarget = 99
)

var (
	minCashoutMultiplier     = decimal.NewFromInt(1)
	minAutoCashoutMultiplier = decimal.RequireFromString("1.01")
)

// StakeLimits bounds a single stake
type StakeLimits struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Validate checks that stake is positive, in cents and within limits
func (l StakeLimits) Validate(field string, stake decimal.Decimal) error {
	if !stake.IsPositive() {
		return NewValidationError(field, "must be positive")
	}
	if !HasMoneyPrecision(stake) {
		return NewValidationError(field, "at most %d decimal places allowed", MoneyPlaces)
	}
	if stake.LessThan(l.Min) {
		return NewValidationError(field, "must be at least %s", l.Min.StringFixed(MoneyPlaces))
	}
	if stake.GreaterThan(l.Max) {
		return NewValidationError(field, "must be at most %s", l.Max.StringFixed(MoneyPlaces))
	}
	return nil
}

// SlotsBet is a single slots spin
type SlotsBet struct {
	PlayerID int64
	Stake    decimal.Decimal
}

func (b SlotsBet) Validate(limits StakeLimits) error {
	return limits.Validate("stake", b.Stake)
}

// DiceBet wins when the roll is at or under Target
type DiceBet struct {
	PlayerID int64
	Stake    decimal.Decimal
	Target   int
}

func (b DiceBet) Validate(limits StakeLimits) error {
	if err := limits.Validate("stake", b.Stake); err != nil {
		return err
	}
	if b.Target < DiceMinTarget || b.Target > DiceMaxTarget {
		return NewValidationError("target", "must be between %d and %d", DiceMinTarget, DiceMaxTarget)
	}
	return nil
}

// CrashStartBet opens a crash session. AutoCashout is shown to the client only.
type CrashStartBet struct {
	PlayerID    int64
	Stake       decimal.Decimal
	AutoCashout *decimal.Decimal
}

func (b CrashStartBet) Validate(limits StakeLimits) error {
	if err := limits.Validate("stake", b.Stake); err != nil {
		return err
	}
	if b.AutoCashout != nil {
		if b.AutoCashout.LessThan(minAutoCashoutMultiplier) {
			return NewValidationError("auto_cashout", "must be at least %s", minAutoCashoutMultiplier)
		}
		if !HasMoneyPrecision(*b.AutoCashout) {
			return NewValidationError("auto_cashout", "at most %d decimal places allowed", MoneyPlaces)
		}
	}
	return nil
}

// CrashCashout claims a multiplier on an open session
type CrashCashout struct {
	PlayerID   int64
	SessionID  uuid.UUID
	Multiplier decimal.Decimal
}

func (c CrashCashout) Validate() error {
	if c.SessionID == uuid.Nil {
		return NewValidationError("session_id", "is required")
	}
	if c.Multiplier.LessThan(minCashoutMultiplier) {
		return NewValidationError("multiplier", "must be at least %s", minCashoutMultiplier)
	}
	if !HasMoneyPrecision(c.Multiplier) {
		return NewValidationError("multiplier", "at most %d decimal places allowed", MoneyPlaces)
	}
	return nil
}

// RouletteBetType is the shape of a roulette sub-bet
type RouletteBetType string

const (
	RouletteStraight RouletteBetType = "straight"
	RouletteSplit    RouletteBetType = "split"
	RouletteStreet   RouletteBetType = "street"
	RouletteCorner   RouletteBetType = "corner"
	RouletteLine     RouletteBetType = "line"
	RouletteDozen    RouletteBetType = "dozen"
	RouletteColumn   RouletteBetType = "column"
	RouletteRed      RouletteBetType = "red"
	RouletteBlack    RouletteBetType = "black"
	RouletteOdd      RouletteBetType = "odd"
	RouletteEven     RouletteBetType = "even"
	RouletteLow      RouletteBetType = "low"
	RouletteHigh     RouletteBetType = "high"
)

// RouletteSubBet is one stake on one region of the table.
// Numbers lists the covered numbers for inside bets, or the dozen/column index (1-3).
type RouletteSubBet struct {
	Type    RouletteBetType `json:"type"`
	Numbers []int           `json:"numbers,omitempty"`
	Stake   decimal.Decimal `json:"stake"`
}

// RouletteBet is a batch of sub-bets resolved on one spin
type RouletteBet struct {
	PlayerID int64
	Bets     []RouletteSubBet
}

const MaxRouletteSubBets = 50

// TotalStake sums the sub-bet stakes
func (b RouletteBet) TotalStake() decimal.Decimal {
	total := decimal.Zero
	for _, sub := range b.Bets {
		total = total.Add(sub.Stake)
	}
	return total
}

// Validate checks batch size and stakes. Table geometry is checked by the evaluator.
func (b RouletteBet) Validate(limits StakeLimits) error {
	if len(b.Bets) == 0 {
		return NewValidationError("bets", "at least one bet is required")
	}
	if len(b.Bets) > MaxRouletteSubBets {
		return NewValidationError("bets", "at most %d bets per spin", MaxRouletteSubBets)
	}
	for i, sub := range b.Bets {
		if err := limits.Validate(fmt.Sprintf("bets[%d].stake", i), sub.Stake); err != nil {
			return err
		}
	}
	return nil
}

