package observability

// Metric name prefixes
const (
	MetricPrefix = "casino"
)

// Metric names
const (
	// Game metrics
	BetsTotal                  = MetricPrefix + ".bets.total"
	BetsRejectedTotal          = MetricPrefix + ".bets.rejected_total"
	StakeAmountTotal           = MetricPrefix + ".bets.stake_total"
	PayoutAmountTotal          = MetricPrefix + ".bets.payout_total"
	SettlementDuration         = MetricPrefix + ".settlement.duration"
	CrashSessionsOpen          = MetricPrefix + ".crash.sessions_open"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"

	// Database metrics
	DatabaseQueriesTotal  = MetricPrefix + ".database.queries_total"
	DatabaseQueryDuration = MetricPrefix + ".database.query_duration"
)

// Label keys
const (
	LabelGame       = "game"
	LabelOutcome    = "outcome"
	LabelReason     = "reason"
	LabelEventType  = "event_type"
	LabelRepository = "repository"
	LabelMethod     = "method"
)

// Outcome label values
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
)
