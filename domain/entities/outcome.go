package entities

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Outcome is the evaluated result of one bet. The set of implementations is
// closed: SlotsOutcome, DiceOutcome, CrashOutcome and RouletteOutcome.
type Outcome interface {
	Kind() GameKind
	TotalStake() decimal.Decimal
	TotalMultiplier() decimal.Decimal
	TotalPayout() decimal.Decimal
	Won() bool
	outcome()
}

// Symbol is a slot reel symbol name from the game table
type Symbol string

// SlotGrid is a 3×3 grid indexed [row][col]
type SlotGrid [3][3]Symbol

// SlotLine names one of the eight paylines
type SlotLine string

const (
	SlotLineTopRow      SlotLine = "row_top"
	SlotLineMiddleRow   SlotLine = "row_middle"
	SlotLineBottomRow   SlotLine = "row_bottom"
	SlotLineLeftCol     SlotLine = "col_left"
	SlotLineCenterCol   SlotLine = "col_center"
	SlotLineRightCol    SlotLine = "col_right"
	SlotLineDiagonal    SlotLine = "diag_down"
	SlotLineAntiDiag    SlotLine = "diag_up"
	SlotLineFullGrid    SlotLine = "full_grid"
)

const (
	SlotMatchTriple = "triple"
	SlotMatchPair   = "pair"
	SlotMatchFull   = "full"
)

// SlotLineWin is a payline that paid
type SlotLineWin struct {
	Line       SlotLine        `json:"line"`
	Symbol     Symbol          `json:"symbol"`
	Match      string          `json:"match"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type SlotsOutcome struct {
	Stake      decimal.Decimal `json:"stake"`
	Grid       SlotGrid        `json:"grid"`
	Lines      []SlotLineWin   `json:"lines"`
	FullGrid   bool            `json:"full_grid"`
	Gates      []Gate          `json:"gates,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

func (o *SlotsOutcome) Kind() GameKind                   { return GameKindSlots }
func (o *SlotsOutcome) TotalStake() decimal.Decimal      { return o.Stake }
func (o *SlotsOutcome) TotalMultiplier() decimal.Decimal { return o.Multiplier }
func (o *SlotsOutcome) TotalPayout() decimal.Decimal     { return o.Payout }
func (o *SlotsOutcome) Won() bool                        { return o.Multiplier.IsPositive() }
func (o *SlotsOutcome) outcome()                         {}

type DiceOutcome struct {
	Stake      decimal.Decimal `json:"stake"`
	Target     int             `json:"target"`
	Roll       int             `json:"roll"`
	Gate       Gate            `json:"gate,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Win        bool            `json:"win"`
}

func (o *DiceOutcome) Kind() GameKind                   { return GameKindDice }
func (o *DiceOutcome) TotalStake() decimal.Decimal      { return o.Stake }
func (o *DiceOutcome) TotalMultiplier() decimal.Decimal { return o.Multiplier }
func (o *DiceOutcome) TotalPayout() decimal.Decimal     { return o.Payout }
func (o *DiceOutcome) Won() bool                        { return o.Win }
func (o *DiceOutcome) outcome()                         {}

type CrashOutcome struct {
	SessionID  uuid.UUID       `json:"session_id"`
	Stake      decimal.Decimal `json:"stake"`
	CrashPoint decimal.Decimal `json:"crash_point"`
	Claimed    decimal.Decimal `json:"claimed"`
	Expired    bool            `json:"expired"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
	Win        bool            `json:"win"`
}

func (o *CrashOutcome) Kind() GameKind                   { return GameKindCrash }
func (o *CrashOutcome) TotalStake() decimal.Decimal      { return o.Stake }
func (o *CrashOutcome) TotalMultiplier() decimal.Decimal { return o.Multiplier }
func (o *CrashOutcome) TotalPayout() decimal.Decimal     { return o.Payout }
func (o *CrashOutcome) Won() bool                        { return o.Win }
func (o *CrashOutcome) outcome()                         {}

// RouletteColor of a pocket
type RouletteColor string

const (
	RouletteColorGreen RouletteColor = "green"
	RouletteColorRed   RouletteColor = "red"
	RouletteColorBlack RouletteColor = "black"
)

// RouletteBetResult is one evaluated sub-bet
type RouletteBetResult struct {
	Bet        RouletteSubBet  `json:"bet"`
	Win        bool            `json:"win"`
	Gate       Gate            `json:"gate,omitempty"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Payout     decimal.Decimal `json:"payout"`
}

type RouletteOutcome struct {
	Spin       int                 `json:"spin"`
	Position   int                 `json:"position"`
	Color      RouletteColor       `json:"color"`
	Bets       []RouletteBetResult `json:"bets"`
	Stake      decimal.Decimal     `json:"stake"`
	Payout     decimal.Decimal     `json:"payout"`
	Multiplier decimal.Decimal     `json:"multiplier"`
	AnyWin     bool                `json:"any_win"`
}

func (o *RouletteOutcome) Kind() GameKind                   { return GameKindRoulette }
func (o *RouletteOutcome) TotalStake() decimal.Decimal      { return o.Stake }
func (o *RouletteOutcome) TotalMultiplier() decimal.Decimal { return o.Multiplier }
func (o *RouletteOutcome) TotalPayout() decimal.Decimal     { return o.Payout }
func (o *RouletteOutcome) Won() bool                        { return o.AnyWin }
func (o *RouletteOutcome) outcome()                         {}

// OutcomeDetail flattens an outcome into the JSON detail stored on its ledger row
func OutcomeDetail(o Outcome) (map[string]any, error) {
	switch v := o.(type) {
	case *SlotsOutcome:
		return map[string]any{
			"grid":      v.Grid,
			"lines":     v.Lines,
			"full_grid": v.FullGrid,
			"gates":     v.Gates,
		}, nil
	case *DiceOutcome:
		return map[string]any{
			"roll":   v.Roll,
			"target": v.Target,
			"gate":   v.Gate,
		}, nil
	case *CrashOutcome:
		return map[string]any{
			"crash_point": v.CrashPoint.StringFixed(MoneyPlaces),
			"claimed":     v.Claimed.StringFixed(MoneyPlaces),
			"expired":     v.Expired,
		}, nil
	case *RouletteOutcome:
		return map[string]any{
			"spin":     v.Spin,
			"position": v.Position,
			"color":    v.Color,
			"bets":     v.Bets,
		}, nil
	default:
		return nil, fmt.Errorf("unknown outcome type %T", o)
	}
}
