package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is a balance-bearing container inside a bank
type Account struct {
	ID                      int64           `db:"id"`
	BankID                  int64           `db:"bank_id"`
	Name                    string          `db:"name"`
	Owner                   uuid.UUID       `db:"owner_id"`
	CoOwners                []uuid.UUID     `db:"-"`
	Balance                 decimal.Decimal `db:"balance"`
	PreviousBalance         decimal.Decimal `db:"previous_balance"`
	MultiplierStage         int             `db:"multiplier_stage"`
	RemainingOfflinePayouts int             `db:"remaining_offline_payouts"`
	DelayUntilNextPayout    int             `db:"delay_until_next_payout"`
	CreatedAt               time.Time       `db:"created_at"`
	UpdatedAt               time.Time       `db:"updated_at"`
}

// IsOwner reports whether the player is the account owner
func (a *Account) IsOwner(player uuid.UUID) bool {
	return a.Owner == player
}

// IsTrusted reports whether the player is the owner or a co-owner
func (a *Account) IsTrusted(player uuid.UUID) bool {
	if a.Owner == player {
		return true
	}
	for _, co := range a.CoOwners {
		if co == player {
			return true
		}
	}
	return false
}

// TrustedPlayers returns the owner followed by all co-owners
func (a *Account) TrustedPlayers() []uuid.UUID {
	players := make([]uuid.UUID, 0, len(a.CoOwners)+1)
	players = append(players, a.Owner)
	for _, co := range a.CoOwners {
		if co != a.Owner {
			players = append(players, co)
		}
	}
	return players
}

// SetBalance stores the balance at MoneyScale
func (a *Account) SetBalance(balance decimal.Decimal) {
	a.Balance = RoundMoney(balance)
}

// State captures the cycle-mutable fields for persistence
func (a *Account) State() AccountState {
	return AccountState{
		AccountID:               a.ID,
		PreviousBalance:         a.PreviousBalance,
		MultiplierStage:         a.MultiplierStage,
		RemainingOfflinePayouts: a.RemainingOfflinePayouts,
		DelayUntilNextPayout:    a.DelayUntilNextPayout,
	}
}

// AccountState is an immutable snapshot of the fields a payout cycle changes
type AccountState struct {
	AccountID               int64
	PreviousBalance         decimal.Decimal
	MultiplierStage         int
	RemainingOfflinePayouts int
	DelayUntilNextPayout    int
}
