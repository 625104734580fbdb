package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestRun summarizes one scheduler firing
type InterestRun struct {
	ID                       int64                  `db:"id"`
	PayoutTime               TimeOfDay              `db:"payout_time"`
	FiredAt                  time.Time              `db:"fired_at"`
	BanksProcessed           int                    `db:"banks_processed"`
	AccountsSettled          int                    `db:"accounts_settled"`
	AccountsSkipped          int                    `db:"accounts_skipped"`
	TotalInterestDistributed decimal.Decimal        `db:"total_interest_distributed"`
	TotalFeesCollected       decimal.Decimal        `db:"total_fees_collected"`
	ExecutionSummary         map[string]interface{} `db:"execution_summary"`
	CreatedAt                time.Time              `db:"created_at"`
}
