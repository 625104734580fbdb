package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountInterest is the settlement of one account for one payout cycle.
// It is written once and never updated.
type AccountInterest struct {
	ID            uuid.UUID       `db:"id"`
	AccountID     int64           `db:"account_id"`
	BankID        int64           `db:"bank_id"`
	Recipient     uuid.UUID       `db:"recipient_id"`
	Interest      decimal.Decimal `db:"interest"`
	LowBalanceFee decimal.Decimal `db:"low_balance_fee"`
	FinalPayment  decimal.Decimal `db:"final_payment"`
	CreatedAt     time.Time       `db:"created_at"`
}

// NewAccountInterest builds a settlement record; FinalPayment is always interest minus fee
func NewAccountInterest(account *Account, interest, fee decimal.Decimal, at time.Time) AccountInterest {
	interest = RoundMoney(interest)
	fee = RoundMoney(fee)
	return AccountInterest{
		ID:            uuid.New(),
		AccountID:     account.ID,
		BankID:        account.BankID,
		Recipient:     account.Owner,
		Interest:      interest,
		LowBalanceFee: fee,
		FinalPayment:  interest.Sub(fee),
		CreatedAt:     at,
	}
}

// InterestTotals aggregates a player's settlements over a period
type InterestTotals struct {
	Interest      decimal.Decimal
	LowBalanceFee decimal.Decimal
	FinalPayment  decimal.Decimal
	Accounts      int
}

// IsZero reports whether nothing was settled
func (t InterestTotals) IsZero() bool {
	return t.Interest.IsZero() && t.LowBalanceFee.IsZero()
}
