package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankConfig is the fully resolved configuration of a bank. A cycle works on a copy
// taken when the bank was loaded; changes apply to the next cycle.
type BankConfig struct {
	InterestRate                  decimal.Decimal
	Multipliers                   []int
	MinimumBalance                decimal.Decimal
	LowBalanceFee                 decimal.Decimal
	PayOnLowBalance               bool
	AllowedOfflinePayouts         int
	OfflineMultiplierDecrement    int
	WithdrawalMultiplierDecrement int
	CountInterestDelayOffline     bool
	InitialInterestDelay          int
	RevenueFormula                string
	PayoutTimes                   []TimeOfDay
}

// Clone returns a deep copy of the configuration
func (c BankConfig) Clone() BankConfig {
	out := c
	out.Multipliers = append([]int(nil), c.Multipliers...)
	out.PayoutTimes = append([]TimeOfDay(nil), c.PayoutTimes...)
	return out
}

// BankConfigOverrides holds per-bank settings. A nil field inherits the global default.
type BankConfigOverrides struct {
	InterestRate                  *decimal.Decimal
	Multipliers                   []int
	MinimumBalance                *decimal.Decimal
	LowBalanceFee                 *decimal.Decimal
	PayOnLowBalance               *bool
	AllowedOfflinePayouts         *int
	OfflineMultiplierDecrement    *int
	WithdrawalMultiplierDecrement *int
	CountInterestDelayOffline     *bool
	InitialInterestDelay          *int
	RevenueFormula                *string
	PayoutTimes                   []TimeOfDay
}

// Resolve layers the overrides on top of the defaults
func (o BankConfigOverrides) Resolve(defaults BankConfig) BankConfig {
	cfg := defaults.Clone()
	if o.InterestRate != nil {
		cfg.InterestRate = *o.InterestRate
	}
	if o.Multipliers != nil {
		cfg.Multipliers = append([]int(nil), o.Multipliers...)
	}
	if o.MinimumBalance != nil {
		cfg.MinimumBalance = RoundMoney(*o.MinimumBalance)
	}
	if o.LowBalanceFee != nil {
		cfg.LowBalanceFee = RoundMoney(*o.LowBalanceFee)
	}
	if o.PayOnLowBalance != nil {
		cfg.PayOnLowBalance = *o.PayOnLowBalance
	}
	if o.AllowedOfflinePayouts != nil {
		cfg.AllowedOfflinePayouts = *o.AllowedOfflinePayouts
	}
	if o.OfflineMultiplierDecrement != nil {
		cfg.OfflineMultiplierDecrement = *o.OfflineMultiplierDecrement
	}
	if o.WithdrawalMultiplierDecrement != nil {
		cfg.WithdrawalMultiplierDecrement = *o.WithdrawalMultiplierDecrement
	}
	if o.CountInterestDelayOffline != nil {
		cfg.CountInterestDelayOffline = *o.CountInterestDelayOffline
	}
	if o.InitialInterestDelay != nil {
		cfg.InitialInterestDelay = *o.InitialInterestDelay
	}
	if o.RevenueFormula != nil {
		cfg.RevenueFormula = *o.RevenueFormula
	}
	if o.PayoutTimes != nil {
		cfg.PayoutTimes = append([]TimeOfDay(nil), o.PayoutTimes...)
	}
	return cfg
}

// Bank is a named region of the world that owns a set of accounts
type Bank struct {
	ID        int64               `db:"id"`
	Name      string              `db:"name"`
	Owner     *uuid.UUID          `db:"owner_id"` // nil for admin banks
	Overrides BankConfigOverrides `db:"-"`
	Config    BankConfig          `db:"-"` // resolved at load time
	Accounts  []*Account          `db:"-"`
	CreatedAt time.Time           `db:"created_at"`
}

// IsPlayerBank reports whether the bank has an owning player
func (b *Bank) IsPlayerBank() bool {
	return b.Owner != nil
}

// IsOwner reports whether the player owns the bank
func (b *Bank) IsOwner(player uuid.UUID) bool {
	return b.Owner != nil && *b.Owner == player
}

// HasPayoutTime reports whether the bank pays out at the given time of day
func (b *Bank) HasPayoutTime(t TimeOfDay) bool {
	for _, pt := range b.Config.PayoutTimes {
		if pt == t {
			return true
		}
	}
	return false
}

// TotalValue is the sum of all account balances
func (b *Bank) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, a := range b.Accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// AverageValue is the mean account balance, zero for an empty bank
func (b *Bank) AverageValue() decimal.Decimal {
	if len(b.Accounts) == 0 {
		return decimal.Zero
	}
	return RoundMoney(b.TotalValue().Div(decimal.NewFromInt(int64(len(b.Accounts)))))
}

// AccountCount is the number of accounts in the bank
func (b *Bank) AccountCount() int {
	return len(b.Accounts)
}

// HolderCount is the number of distinct account owners
func (b *Bank) HolderCount() int {
	owners := make(map[uuid.UUID]struct{}, len(b.Accounts))
	for _, a := range b.Accounts {
		owners[a.Owner] = struct{}{}
	}
	return len(owners)
}
