package application

import (
	"context"
	"fmt"

	"casino/domain/interfaces"
)

// OpenSessionCounter reports how many crash sessions are open
type OpenSessionCounter interface {
	CountOpen(ctx context.Context) (int64, error)
}

// QueryTimer measures one database call
type QueryTimer interface {
	MeasureDatabaseQuery(repository, method string) func()
}

// SeedOpenCrashSessions sets the open-session gauge to the count left over
// from a previous run
func SeedOpenCrashSessions(ctx context.Context, counter OpenSessionCounter, metrics interfaces.GameMetrics, timer QueryTimer) (int64, error) {
	done := timer.MeasureDatabaseQuery("crash_session", "CountOpen")
	count, err := counter.CountOpen(ctx)
	done()
	if err != nil {
		return 0, fmt.Errorf("failed to count open crash sessions: %w", err)
	}

	metrics.UpdateOpenCrashSessions(count)
	return count, nil
}
