package entities

// GameKind identifies which game produced a ledger row
type GameKind string

const (
	GameKindSlots    GameKind = "slots"
	GameKindDice     GameKind = "dice"
	GameKindCrash    GameKind = "crash"
	GameKindRoulette GameKind = "roulette"
	// GameKindExternal covers collaborators such as blackjack that only use settlement
	GameKindExternal GameKind = "external"
)

// Valid returns true for the kinds the ledger accepts
func (k GameKind) Valid() bool {
	switch k {
	case GameKindSlots, GameKindDice, GameKindCrash, GameKindRoulette, GameKindExternal:
		return true
	}
	return false
}

// BetState tracks a bet through evaluation
type BetState string

const (
	BetStateReceived  BetState = "received"
	BetStateValidated BetState = "validated"
	BetStateDrawn     BetState = "drawn"
	BetStateEvaluated BetState = "evaluated"
	BetStateSettled   BetState = "settled"
	BetStateRejected  BetState = "rejected"
)

// IsTerminal returns true once the bet can no longer change
func (s BetState) IsTerminal() bool {
	return s == BetStateSettled || s == BetStateRejected
}

// Gate names a policy gate that altered a raw outcome
type Gate string

const (
	GateNone       Gate = ""
	GateForcedLoss Gate = "forced_loss"
	GateLuckyWin   Gate = "lucky_win"
	GateBigWin     Gate = "big_win"
	GateJackpot    Gate = "jackpot"
	GateInstant    Gate = "instant_crash"
)
