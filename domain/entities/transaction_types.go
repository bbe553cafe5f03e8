package entities

// TransactionType represents the type of balance change
type TransactionType string

const (
	// Game transactions
	TransactionTypeBetWin      TransactionType = "bet_win"
	TransactionTypeBetLoss     TransactionType = "bet_loss"
	TransactionTypeCrashStake  TransactionType = "crash_stake"
	TransactionTypeCrashPayout TransactionType = "crash_payout"

	// System transactions
	TransactionTypeInitial         TransactionType = "initial"
	TransactionTypeAdminAdjustment TransactionType = "admin_adjustment"
)

// IsWinType returns true if the transaction type represents a win
func (tt TransactionType) IsWinType() bool {
	return tt == TransactionTypeBetWin || tt == TransactionTypeCrashPayout
}

// IsGamblingRelated returns true for transactions produced by a game
func (tt TransactionType) IsGamblingRelated() bool {
	switch tt {
	case TransactionTypeBetWin, TransactionTypeBetLoss, TransactionTypeCrashStake, TransactionTypeCrashPayout:
		return true
	}
	return false
}
