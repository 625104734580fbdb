package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"regionbank/events"
	"regionbank/models"
)

// MockEconomy is a mock implementation of Economy. Format is not mocked and
// renders the amount with two decimals.
type MockEconomy struct {
	mock.Mock
}

func (m *MockEconomy) Transact(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, player, amount)
	return args.Error(0)
}

func (m *MockEconomy) Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(models.MoneyScale)
}

// MockPresenceLookup is a mock implementation of PresenceLookup
type MockPresenceLookup struct {
	mock.Mock
}

func (m *MockPresenceLookup) IsPresent(player uuid.UUID) bool {
	args := m.Called(player)
	return args.Bool(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notification models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

// MockPersistenceGateway is a mock implementation of PersistenceGateway
type MockPersistenceGateway struct {
	mock.Mock
}

func (m *MockPersistenceGateway) PersistAccounts(ctx context.Context, bankID int64, states []models.AccountState) error {
	args := m.Called(ctx, bankID, states)
	return args.Error(0)
}

func (m *MockPersistenceGateway) PersistSettlements(ctx context.Context, settlements []models.AccountInterest) error {
	args := m.Called(ctx, settlements)
	return args.Error(0)
}

func (m *MockPersistenceGateway) PersistIncomes(ctx context.Context, incomes []models.BankIncome) error {
	args := m.Called(ctx, incomes)
	return args.Error(0)
}

func (m *MockPersistenceGateway) PersistRun(ctx context.Context, run *models.InterestRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

// MockSettlementTotals is a mock implementation of SettlementTotals
type MockSettlementTotals struct {
	mock.Mock
}

func (m *MockSettlementTotals) InterestTotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.InterestTotals, error) {
	args := m.Called(ctx, player, since)
	return args.Get(0).(models.InterestTotals), args.Error(1)
}

func (m *MockSettlementTotals) IncomeTotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.IncomeTotals, error) {
	args := m.Called(ctx, player, since)
	return args.Get(0).(models.IncomeTotals), args.Error(1)
}

// MockBankSource is a mock implementation of BankSource
type MockBankSource struct {
	mock.Mock
}

func (m *MockBankSource) LoadAll(ctx context.Context) ([]*models.Bank, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bank), args.Error(1)
}

// MockPaymentSettler is a mock implementation of PaymentSettler
type MockPaymentSettler struct {
	mock.Mock
}

func (m *MockPaymentSettler) Distribute(ctx context.Context, batch PaymentBatch) DistributionResult {
	args := m.Called(ctx, batch)
	return args.Get(0).(DistributionResult)
}

// MockPayoutHandler is a mock implementation of PayoutHandler
type MockPayoutHandler struct {
	mock.Mock
}

func (m *MockPayoutHandler) Process(ctx context.Context, trigger PayoutTrigger) *CycleResult {
	args := m.Called(ctx, trigger)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*CycleResult)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}
