package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"regionbank/models"
)

// CreateTestBank creates an unsaved admin bank that inherits every default
func CreateTestBank(name string) *models.Bank {
	return &models.Bank{
		Name: name,
	}
}

// CreateTestPlayerBank creates an unsaved bank owned by a player
func CreateTestPlayerBank(name string, owner uuid.UUID) *models.Bank {
	bank := CreateTestBank(name)
	bank.Owner = &owner
	return bank
}

// CreateTestAccount creates an unsaved account with the given balance
func CreateTestAccount(bankID int64, owner uuid.UUID, balance string) *models.Account {
	return &models.Account{
		BankID:                  bankID,
		Name:                    "savings",
		Owner:                   owner,
		Balance:                 decimal.RequireFromString(balance),
		RemainingOfflinePayouts: 1,
	}
}

// CreateTestSettlement creates a settlement record for an account
func CreateTestSettlement(account *models.Account, interest, fee string, at time.Time) models.AccountInterest {
	return models.NewAccountInterest(account, decimal.RequireFromString(interest), decimal.RequireFromString(fee), at)
}

// CreateTestIncome creates an income record for a bank
func CreateTestIncome(bank *models.Bank, revenue, interestPaid, fees string, at time.Time) models.BankIncome {
	return models.NewBankIncome(bank,
		decimal.RequireFromString(revenue),
		decimal.RequireFromString(interestPaid),
		decimal.RequireFromString(fees),
		at)
}

// CreateTestInterestRun creates a test interest run
func CreateTestInterestRun(payoutTime models.TimeOfDay, firedAt time.Time) *models.InterestRun {
	return &models.InterestRun{
		PayoutTime:               payoutTime,
		FiredAt:                  firedAt,
		BanksProcessed:           2,
		AccountsSettled:          10,
		AccountsSkipped:          1,
		TotalInterestDistributed: decimal.RequireFromString("50.25"),
		TotalFeesCollected:       decimal.RequireFromString("4.00"),
		ExecutionSummary: map[string]interface{}{
			"bank_ids":      []int64{1, 2},
			"interest_legs": 10,
		},
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
