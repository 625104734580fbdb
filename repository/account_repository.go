package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"regionbank/database"
	"regionbank/models"
)

// AccountRepository persists accounts and their cycle state
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

// newAccountRepositoryWithTx creates a new account repository with a transaction
func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var account models.Account
	err := row.Scan(
		&account.ID,
		&account.BankID,
		&account.Name,
		&account.Owner,
		&account.Balance,
		&account.PreviousBalance,
		&account.MultiplierStage,
		&account.RemainingOfflinePayouts,
		&account.DelayUntilNextPayout,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return &account, nil
}

// Create inserts an account and its co-owners. PreviousBalance starts at the
// opening balance so the first cycle does not see a withdrawal.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (
			bank_id, name, owner_id, balance, previous_balance, multiplier_stage,
			remaining_offline_payouts, delay_until_next_payout
		)
		VALUES ($1, $2, $3, $4, $4, $5, $6, $7)
		RETURNING ` + accountColumns

	created, err := scanAccount(r.q.QueryRow(ctx, query,
		account.BankID,
		account.Name,
		account.Owner,
		models.RoundMoney(account.Balance),
		account.MultiplierStage,
		account.RemainingOfflinePayouts,
		account.DelayUntilNextPayout,
	))
	if err != nil {
		return fmt.Errorf("failed to create account in bank %d: %w", account.BankID, err)
	}

	if len(account.CoOwners) > 0 {
		batch := &pgx.Batch{}
		for _, co := range account.CoOwners {
			batch.Queue(`
				INSERT INTO account_co_owners (account_id, player_id)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, created.ID, co)
		}
		if err := execBatch(ctx, r.q, batch); err != nil {
			return fmt.Errorf("failed to add co-owners to account %d: %w", created.ID, err)
		}
	}

	created.CoOwners = account.CoOwners
	*account = *created
	return nil
}

// GetByID retrieves an account without its co-owners, or nil when missing
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	account, err := scanAccount(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errorsIsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get account %d: %w", id, err)
	}
	return account, nil
}

// UpdateBalance sets an account balance. Deposits and withdrawals made in the
// world arrive here; the next cycle compares it to the previous balance.
func (r *AccountRepository) UpdateBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	query := `
		UPDATE accounts
		SET balance = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.q.Exec(ctx, query, id, models.RoundMoney(balance))
	if err != nil {
		return fmt.Errorf("failed to update balance for account %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", id)
	}
	return nil
}

// UpdateStates writes the cycle-mutable fields of a bank's accounts in one round
// trip. Accounts deleted since the cycle started are skipped.
func (r *AccountRepository) UpdateStates(ctx context.Context, bankID int64, states []models.AccountState) error {
	if len(states) == 0 {
		return nil
	}

	query := `
		UPDATE accounts SET
			previous_balance = $3,
			multiplier_stage = $4,
			remaining_offline_payouts = $5,
			delay_until_next_payout = $6,
			updated_at = NOW()
		WHERE id = $1 AND bank_id = $2
	`

	batch := &pgx.Batch{}
	for _, s := range states {
		batch.Queue(query,
			s.AccountID,
			bankID,
			models.RoundMoney(s.PreviousBalance),
			s.MultiplierStage,
			s.RemainingOfflinePayouts,
			s.DelayUntilNextPayout,
		)
	}

	if err := execBatch(ctx, r.q, batch); err != nil {
		return fmt.Errorf("failed to update account states for bank %d: %w", bankID, err)
	}
	return nil
}
