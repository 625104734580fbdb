package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"regionbank/events"
	"regionbank/models"
)

// ErrInsufficientFunds is returned by an Economy when a debit exceeds the player's funds
var ErrInsufficientFunds = errors.New("insufficient funds")

// Economy is the external currency service
type Economy interface {
	// Transact credits (positive) or debits (negative) a player's balance
	Transact(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error

	// Format renders an amount for display
	Format(amount decimal.Decimal) string
}

// PresenceLookup answers whether a player is currently in the world
type PresenceLookup interface {
	IsPresent(player uuid.UUID) bool
}

// Notifier delivers a message to a player
type Notifier interface {
	Notify(ctx context.Context, notification models.Notification) error
}

// PersistenceGateway durably records payout results. Each call is a separate
// best-effort write; the caller only logs failures.
type PersistenceGateway interface {
	// PersistAccounts writes the cycle-mutable state of one bank's accounts
	PersistAccounts(ctx context.Context, bankID int64, states []models.AccountState) error

	// PersistSettlements appends account interest records
	PersistSettlements(ctx context.Context, settlements []models.AccountInterest) error

	// PersistIncomes appends bank income records
	PersistIncomes(ctx context.Context, incomes []models.BankIncome) error

	// PersistRun records the summary of one scheduler firing
	PersistRun(ctx context.Context, run *models.InterestRun) error
}

// SettlementTotals answers catch-up queries for players returning after an absence
type SettlementTotals interface {
	// InterestTotalsSince sums the player's account settlements created after since
	InterestTotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.InterestTotals, error)

	// IncomeTotalsSince sums the player's bank income records created after since
	IncomeTotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.IncomeTotals, error)
}

// BankSource loads banks with their accounts and resolved configuration
type BankSource interface {
	LoadAll(ctx context.Context) ([]*models.Bank, error)
}

// JobSubmitter runs work outside the logic goroutine
type JobSubmitter interface {
	Submit(name string, job func(ctx context.Context) error)
}

// PaymentSettler settles the monetary side of a payout cycle
type PaymentSettler interface {
	Distribute(ctx context.Context, batch PaymentBatch) DistributionResult
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}
