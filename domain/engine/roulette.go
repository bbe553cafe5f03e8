package engine

import (
	"errors"
	"slices"
	"strconv"

	"casino/domain/entities"
	"casino/domain/policy"

	"github.com/shopspring/decimal"
)

// rouletteMultipliers include the returned stake
var rouletteMultipliers = map[entities.RouletteBetType]int64{
	entities.RouletteStraight: 36,
	entities.RouletteSplit:    18,
	entities.RouletteStreet:   12,
	entities.RouletteCorner:   9,
	entities.RouletteLine:     6,
	entities.RouletteDozen:    3,
	entities.RouletteColumn:   3,
	entities.RouletteRed:      2,
	entities.RouletteBlack:    2,
	entities.RouletteOdd:      2,
	entities.RouletteEven:     2,
	entities.RouletteLow:      2,
	entities.RouletteHigh:     2,
}

// RouletteMultiplier returns the payout multiplier for a winning sub-bet
func RouletteMultiplier(t entities.RouletteBetType) (decimal.Decimal, bool) {
	m, ok := rouletteMultipliers[t]
	return decimal.NewFromInt(m), ok
}

// ValidateRouletteBet checks that each sub-bet covers a real region of the table
func ValidateRouletteBet(bet entities.RouletteBet) error {
	for i, sub := range bet.Bets {
		if err := validateSubBet(sub); err != nil {
			var ve *entities.ValidationError
			if errors.As(err, &ve) {
				ve.Field = "bets[" + strconv.Itoa(i) + "]." + ve.Field
			}
			return err
		}
	}
	return nil
}

func validateSubBet(sub entities.RouletteSubBet) error {
	if _, ok := rouletteMultipliers[sub.Type]; !ok {
		return entities.NewValidationError("type", "unknown bet type %q", sub.Type)
	}

	nums := slices.Clone(sub.Numbers)
	slices.Sort(nums)
	for _, n := range nums {
		if n < 0 || n > 36 {
			return entities.NewValidationError("numbers", "%d is not on the table", n)
		}
	}
	if len(slices.Compact(slices.Clone(nums))) != len(nums) {
		return entities.NewValidationError("numbers", "duplicate numbers")
	}

	switch sub.Type {
	case entities.RouletteStraight:
		if len(nums) != 1 {
			return entities.NewValidationError("numbers", "straight bet covers exactly one number")
		}
	case entities.RouletteSplit:
		if len(nums) != 2 || !isSplit(nums[0], nums[1]) {
			return entities.NewValidationError("numbers", "split must cover two adjacent numbers")
		}
	case entities.RouletteStreet:
		if len(nums) != 3 || !isStreet(nums) {
			return entities.NewValidationError("numbers", "street must cover one row of three")
		}
	case entities.RouletteCorner:
		if len(nums) != 4 || !isCorner(nums) {
			return entities.NewValidationError("numbers", "corner must cover a 2x2 block")
		}
	case entities.RouletteLine:
		if len(nums) != 6 || !isLine(nums) {
			return entities.NewValidationError("numbers", "line must cover two adjacent rows")
		}
	case entities.RouletteDozen, entities.RouletteColumn:
		if len(nums) != 1 || nums[0] < 1 || nums[0] > 3 {
			return entities.NewValidationError("numbers", "%s needs a single index between 1 and 3", sub.Type)
		}
	default:
		if len(nums) != 0 {
			return entities.NewValidationError("numbers", "%s bet takes no numbers", sub.Type)
		}
	}
	return nil
}

// Table layout: row r (0-based) holds 3r+1, 3r+2, 3r+3

func isSplit(a, b int) bool {
	if a == 0 {
		return b >= 1 && b <= 3
	}
	if b-a == 3 {
		return true
	}
	return b-a == 1 && a%3 != 0
}

func isStreet(nums []int) bool {
	if nums[0] == 0 {
		// trios 0-1-2 and 0-2-3
		return (nums[1] == 1 && nums[2] == 2) || (nums[1] == 2 && nums[2] == 3)
	}
	return nums[0]%3 == 1 && nums[1] == nums[0]+1 && nums[2] == nums[0]+2
}

func isCorner(nums []int) bool {
	if nums[0] == 0 {
		// first four
		return nums[1] == 1 && nums[2] == 2 && nums[3] == 3
	}
	n := nums[0]
	return n%3 != 0 && nums[1] == n+1 && nums[2] == n+3 && nums[3] == n+4
}

func isLine(nums []int) bool {
	n := nums[0]
	if n%3 != 1 || n > 31 {
		return false
	}
	for i, v := range nums {
		if v != n+i {
			return false
		}
	}
	return true
}

// Covers reports whether the sub-bet wins on number
func Covers(sub entities.RouletteSubBet, number int) bool {
	switch sub.Type {
	case entities.RouletteStraight, entities.RouletteSplit, entities.RouletteStreet,
		entities.RouletteCorner, entities.RouletteLine:
		return slices.Contains(sub.Numbers, number)
	case entities.RouletteDozen:
		d := sub.Numbers[0]
		return number >= (d-1)*12+1 && number <= d*12
	case entities.RouletteColumn:
		return number != 0 && (number-1)%3+1 == sub.Numbers[0]
	case entities.RouletteRed:
		return redNumbers[number]
	case entities.RouletteBlack:
		return number != 0 && !redNumbers[number]
	case entities.RouletteOdd:
		return number != 0 && number%2 == 1
	case entities.RouletteEven:
		return number != 0 && number%2 == 0
	case entities.RouletteLow:
		return number >= 1 && number <= 18
	case entities.RouletteHigh:
		return number >= 19 && number <= 36
	}
	return false
}

// EvaluateRoulette scores every sub-bet against one shared spin. Each sub-bet
// may then be flipped by the forced-loss or lucky-win gate, and the applied
// gate is kept on the sub-bet result.
func EvaluateRoulette(snap *policy.Snapshot, playCount int64, bet entities.RouletteBet, number, position int, rng RandomSource) *entities.RouletteOutcome {
	out := &entities.RouletteOutcome{
		Spin:       number,
		Position:   position,
		Color:      ColorOf(number),
		Bets:       make([]entities.RouletteBetResult, 0, len(bet.Bets)),
		Stake:      decimal.Zero,
		Payout:     decimal.Zero,
		Multiplier: decimal.Zero,
	}

	for _, sub := range bet.Bets {
		res := entities.RouletteBetResult{
			Bet:        sub,
			Win:        Covers(sub, number),
			Multiplier: decimal.Zero,
			Payout:     decimal.Zero,
		}

		if res.Win && snap.ForcedLoss(entities.GameKindRoulette, playCount, rng) {
			res.Win = false
			res.Gate = entities.GateForcedLoss
		} else if !res.Win && snap.LuckyWin(entities.GameKindRoulette, playCount, rng) {
			res.Win = true
			res.Gate = entities.GateLuckyWin
		}

		if res.Win {
			res.Multiplier, _ = RouletteMultiplier(sub.Type)
			res.Payout = entities.PayoutFor(sub.Stake, res.Multiplier)
			out.AnyWin = true
		}

		out.Stake = out.Stake.Add(sub.Stake)
		out.Payout = out.Payout.Add(res.Payout)
		out.Bets = append(out.Bets, res)
	}

	if out.Stake.IsPositive() {
		out.Multiplier = entities.NormalizeMultiplier(out.Payout.DivRound(out.Stake, entities.MultiplierPlaces+2))
	}
	return out
}
