package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"regionbank/database"
	"regionbank/models"
)

// Gateway is the durable side of a payout cycle. Every call is its own
// transaction so one failed write never holds back the others.
type Gateway struct {
	uow      *UnitOfWorkFactory
	interest *AccountInterestRepository
	incomes  *BankIncomeRepository
}

// NewGateway creates a new persistence gateway
func NewGateway(db *database.DB, uow *UnitOfWorkFactory) *Gateway {
	return &Gateway{
		uow:      uow,
		interest: NewAccountInterestRepository(db),
		incomes:  NewBankIncomeRepository(db),
	}
}

// PersistAccounts writes one bank's account states
func (g *Gateway) PersistAccounts(ctx context.Context, bankID int64, states []models.AccountState) error {
	return g.uow.Run(ctx, func(uow *UnitOfWork) error {
		return uow.Accounts().UpdateStates(ctx, bankID, states)
	})
}

// PersistSettlements appends account settlement records
func (g *Gateway) PersistSettlements(ctx context.Context, settlements []models.AccountInterest) error {
	return g.uow.Run(ctx, func(uow *UnitOfWork) error {
		return uow.AccountInterest().RecordBatch(ctx, settlements)
	})
}

// PersistIncomes appends bank income records
func (g *Gateway) PersistIncomes(ctx context.Context, incomes []models.BankIncome) error {
	return g.uow.Run(ctx, func(uow *UnitOfWork) error {
		return uow.BankIncome().RecordBatch(ctx, incomes)
	})
}

// PersistRun records a scheduler firing summary
func (g *Gateway) PersistRun(ctx context.Context, run *models.InterestRun) error {
	return g.uow.Run(ctx, func(uow *UnitOfWork) error {
		return uow.InterestRuns().Create(ctx, run)
	})
}

// InterestTotalsSince sums a player's account settlements after since
func (g *Gateway) InterestTotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.InterestTotals, error) {
	return g.interest.TotalsSince(ctx, player, since)
}

// IncomeTotalsSince sums a player's bank income after since
func (g *Gateway) IncomeTotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.IncomeTotals, error) {
	return g.incomes.TotalsSince(ctx, player, since)
}
