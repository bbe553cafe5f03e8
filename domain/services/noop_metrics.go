package services

import (
	"time"

	"casino/domain/entities"

	"github.com/shopspring/decimal"
)

type noopMetrics struct{}

func (noopMetrics) RecordBet(entities.GameKind, decimal.Decimal, decimal.Decimal, bool) {}
func (noopMetrics) RecordRejection(entities.GameKind, string)                         {}
func (noopMetrics) RecordSettlementDuration(entities.GameKind, time.Duration)          {}
func (noopMetrics) UpdateOpenCrashSessions(int64)                                      {}
