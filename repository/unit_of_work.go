package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"regionbank/database"
	"regionbank/events"
	"regionbank/models"
)

// UnitOfWork groups repository calls into one transaction. Events published on
// its bus are delivered only after Commit.
type UnitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	defaults         models.BankConfig
	transactionalBus *events.TransactionalBus
	bankRepo         *BankRepository
	accountRepo      *AccountRepository
	interestRepo     *AccountInterestRepository
	incomeRepo       *BankIncomeRepository
	runRepo          *InterestRunRepository
}

// UnitOfWorkFactory creates units of work sharing a pool and event bus
type UnitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
	defaults models.BankConfig
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus, defaults models.BankConfig) *UnitOfWorkFactory {
	return &UnitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
		defaults: defaults,
	}
}

// Create returns a unit of work that has not begun yet
func (f *UnitOfWorkFactory) Create() *UnitOfWork {
	return &UnitOfWork{
		db:               f.db,
		defaults:         f.defaults,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Run begins a unit of work, calls fn and commits, rolling back when fn fails
func (f *UnitOfWorkFactory) Run(ctx context.Context, fn func(uow *UnitOfWork) error) error {
	uow := f.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	if err := fn(uow); err != nil {
		if rbErr := uow.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
		}
		return err
	}
	return uow.Commit()
}

// Begin starts a new transaction
func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.bankRepo = newBankRepositoryWithTx(tx, u.defaults, u.transactionalBus)
	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.interestRepo = newAccountInterestRepositoryWithTx(tx)
	u.incomeRepo = newBankIncomeRepositoryWithTx(tx)
	u.runRepo = newInterestRunRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction
func (u *UnitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	u.transactionalBus.Flush()

	return nil
}

// Rollback rolls back the transaction
func (u *UnitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	u.transactionalBus.Discard()

	return nil
}

// Banks returns the bank repository for this unit of work
func (u *UnitOfWork) Banks() *BankRepository {
	if u.bankRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.bankRepo
}

// Accounts returns the account repository for this unit of work
func (u *UnitOfWork) Accounts() *AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

// AccountInterest returns the account interest repository for this unit of work
func (u *UnitOfWork) AccountInterest() *AccountInterestRepository {
	if u.interestRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.interestRepo
}

// BankIncome returns the bank income repository for this unit of work
func (u *UnitOfWork) BankIncome() *BankIncomeRepository {
	if u.incomeRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.incomeRepo
}

// InterestRuns returns the interest run repository for this unit of work
func (u *UnitOfWork) InterestRuns() *InterestRunRepository {
	if u.runRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.runRepo
}
