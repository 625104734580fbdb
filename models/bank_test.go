package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() BankConfig {
	return BankConfig{
		InterestRate:                  MustMoney("0.01"),
		Multipliers:                   []int{1, 2, 3},
		MinimumBalance:                decimal.Zero,
		LowBalanceFee:                 decimal.Zero,
		PayOnLowBalance:               true,
		AllowedOfflinePayouts:         1,
		OfflineMultiplierDecrement:    1,
		WithdrawalMultiplierDecrement: 1,
		InitialInterestDelay:          0,
		RevenueFormula:                "0",
		PayoutTimes:                   []TimeOfDay{{Hour: 9}},
	}
}

func TestBankConfigOverrides_Resolve(t *testing.T) {
	defaults := defaultConfig()
	fee := decimal.RequireFromString("2.555")
	payOnLow := false
	formula := "holders * 2"

	cfg := BankConfigOverrides{
		LowBalanceFee:   &fee,
		PayOnLowBalance: &payOnLow,
		RevenueFormula:  &formula,
		PayoutTimes:     []TimeOfDay{{Hour: 18}},
	}.Resolve(defaults)

	assert.True(t, cfg.LowBalanceFee.Equal(MustMoney("2.56")))
	assert.False(t, cfg.PayOnLowBalance)
	assert.Equal(t, "holders * 2", cfg.RevenueFormula)
	assert.Equal(t, []TimeOfDay{{Hour: 18}}, cfg.PayoutTimes)

	// Untouched fields inherit the defaults
	assert.True(t, cfg.InterestRate.Equal(defaults.InterestRate))
	assert.Equal(t, []int{1, 2, 3}, cfg.Multipliers)

	// The resolved copy does not alias the defaults
	cfg.Multipliers[0] = 99
	assert.Equal(t, 1, defaults.Multipliers[0])
}

func TestBank_Aggregates(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	bank := &Bank{
		ID:     1,
		Config: defaultConfig(),
		Accounts: []*Account{
			{ID: 1, Owner: alice, Balance: MustMoney("100")},
			{ID: 2, Owner: alice, Balance: MustMoney("50")},
			{ID: 3, Owner: bob, Balance: MustMoney("0.01")},
		},
	}

	assert.True(t, bank.TotalValue().Equal(MustMoney("150.01")))
	assert.True(t, bank.AverageValue().Equal(MustMoney("50")))
	assert.Equal(t, 3, bank.AccountCount())
	assert.Equal(t, 2, bank.HolderCount())
	assert.True(t, bank.HasPayoutTime(TimeOfDay{Hour: 9}))
	assert.False(t, bank.HasPayoutTime(TimeOfDay{Hour: 10}))
	assert.False(t, bank.IsPlayerBank())

	bank.Owner = &bob
	assert.True(t, bank.IsPlayerBank())
	assert.True(t, bank.IsOwner(bob))
	assert.False(t, bank.IsOwner(alice))

	empty := &Bank{}
	assert.True(t, empty.AverageValue().IsZero())
}

func TestAccount_Trust(t *testing.T) {
	owner, co, stranger := uuid.New(), uuid.New(), uuid.New()
	account := &Account{Owner: owner, CoOwners: []uuid.UUID{co, owner}}

	assert.True(t, account.IsTrusted(owner))
	assert.True(t, account.IsTrusted(co))
	assert.False(t, account.IsTrusted(stranger))
	assert.Equal(t, []uuid.UUID{owner, co}, account.TrustedPlayers())
}

func TestNewAccountInterest(t *testing.T) {
	at := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	account := &Account{ID: 4, BankID: 2, Owner: uuid.New()}

	record := NewAccountInterest(account, decimal.RequireFromString("10.005"), MustMoney("5"), at)

	require.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, int64(4), record.AccountID)
	assert.Equal(t, int64(2), record.BankID)
	assert.Equal(t, account.Owner, record.Recipient)
	assert.True(t, record.Interest.Equal(MustMoney("10")))
	assert.True(t, record.FinalPayment.Equal(record.Interest.Sub(record.LowBalanceFee)))
	assert.True(t, record.FinalPayment.Equal(MustMoney("5")))
}

func TestNewBankIncome(t *testing.T) {
	at := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	owner := uuid.New()

	income := NewBankIncome(&Bank{ID: 3, Owner: &owner}, MustMoney("12.50"), MustMoney("20"), MustMoney("5"), at)
	require.NotNil(t, income.Recipient)
	assert.Equal(t, owner, *income.Recipient)
	assert.True(t, income.NetIncome.Equal(MustMoney("-2.50")))

	admin := NewBankIncome(&Bank{ID: 4}, decimal.Zero, MustMoney("1"), decimal.Zero, at)
	assert.Nil(t, admin.Recipient)
	assert.True(t, admin.NetIncome.Equal(MustMoney("-1")))
}

func TestRoundMoney_HalfToEven(t *testing.T) {
	assert.True(t, RoundMoney(decimal.RequireFromString("0.125")).Equal(MustMoney("0.12")))
	assert.True(t, RoundMoney(decimal.RequireFromString("0.135")).Equal(MustMoney("0.14")))
}
