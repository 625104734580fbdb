package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"regionbank/models"
)

// syncJobs runs submitted jobs immediately on the calling goroutine
type syncJobs struct {
	mu    sync.Mutex
	names []string
}

func (s *syncJobs) Submit(name string, job func(ctx context.Context) error) {
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	_ = job(context.Background())
}

// presenceSet is a fixed set of online players
type presenceSet map[uuid.UUID]bool

func (p presenceSet) IsPresent(player uuid.UUID) bool {
	return p[player]
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// decimalEq matches a decimal argument by value rather than representation
func decimalEq(want string) interface{} {
	expected := money(want)
	return mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(expected)
	})
}

func testBankConfig() models.BankConfig {
	return models.BankConfig{
		InterestRate:                  money("0.01"),
		Multipliers:                   []int{1},
		MinimumBalance:                decimal.Zero,
		LowBalanceFee:                 decimal.Zero,
		PayOnLowBalance:               true,
		AllowedOfflinePayouts:         1,
		OfflineMultiplierDecrement:    0,
		WithdrawalMultiplierDecrement: 1,
		RevenueFormula:                "0",
		PayoutTimes:                   []models.TimeOfDay{{Hour: 9}},
	}
}

func newTestAccount(id, bankID int64, owner uuid.UUID, balance string) *models.Account {
	b := money(balance)
	return &models.Account{
		ID:              id,
		BankID:          bankID,
		Owner:           owner,
		Balance:         b,
		PreviousBalance: b,
	}
}
