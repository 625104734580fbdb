package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankIncome records a bank owner's income for one payout cycle
type BankIncome struct {
	ID            uuid.UUID       `db:"id"`
	BankID        int64           `db:"bank_id"`
	Recipient     *uuid.UUID      `db:"recipient_id"` // nil for admin banks
	Revenue       decimal.Decimal `db:"revenue"`
	InterestPaid  decimal.Decimal `db:"interest_paid"`
	FeesCollected decimal.Decimal `db:"fees_collected"`
	NetIncome     decimal.Decimal `db:"net_income"`
	CreatedAt     time.Time       `db:"created_at"`
}

// NewBankIncome builds an income record with NetIncome = revenue + fees - interest
func NewBankIncome(bank *Bank, revenue, interestPaid, feesCollected decimal.Decimal, at time.Time) BankIncome {
	revenue = RoundMoney(revenue)
	interestPaid = RoundMoney(interestPaid)
	feesCollected = RoundMoney(feesCollected)
	var recipient *uuid.UUID
	if bank.Owner != nil {
		owner := *bank.Owner
		recipient = &owner
	}
	return BankIncome{
		ID:            uuid.New(),
		BankID:        bank.ID,
		Recipient:     recipient,
		Revenue:       revenue,
		InterestPaid:  interestPaid,
		FeesCollected: feesCollected,
		NetIncome:     revenue.Add(feesCollected).Sub(interestPaid),
		CreatedAt:     at,
	}
}

// IncomeTotals aggregates a bank owner's income records over a period
type IncomeTotals struct {
	Revenue       decimal.Decimal
	InterestPaid  decimal.Decimal
	FeesCollected decimal.Decimal
	NetIncome     decimal.Decimal
	Banks         int
}

// IsZero reports whether no income was recorded
func (t IncomeTotals) IsZero() bool {
	return t.Revenue.IsZero() && t.InterestPaid.IsZero() && t.FeesCollected.IsZero()
}
