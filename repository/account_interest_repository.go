package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"regionbank/database"
	"regionbank/models"
)

// AccountInterestRepository stores the append-only account settlement ledger
type AccountInterestRepository struct {
	q queryable
}

// NewAccountInterestRepository creates a new account interest repository
func NewAccountInterestRepository(db *database.DB) *AccountInterestRepository {
	return &AccountInterestRepository{q: db.Pool}
}

func newAccountInterestRepositoryWithTx(tx queryable) *AccountInterestRepository {
	return &AccountInterestRepository{q: tx}
}

// RecordBatch appends settlement records. Records already stored (same id) are
// left untouched.
func (r *AccountInterestRepository) RecordBatch(ctx context.Context, records []models.AccountInterest) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO account_interest
		(id, account_id, bank_id, recipient_id, interest, low_balance_fee, final_payment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.ID,
			rec.AccountID,
			rec.BankID,
			rec.Recipient,
			rec.Interest,
			rec.LowBalanceFee,
			rec.FinalPayment,
			rec.CreatedAt,
		)
	}

	if err := execBatch(ctx, r.q, batch); err != nil {
		return fmt.Errorf("failed to record %d account settlements: %w", len(records), err)
	}
	return nil
}

// GetByAccount returns the most recent settlements of an account, newest first
func (r *AccountInterestRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*models.AccountInterest, error) {
	query := `
		SELECT id, account_id, bank_id, recipient_id, interest, low_balance_fee, final_payment, created_at
		FROM account_interest
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements for account %d: %w", accountID, err)
	}
	defer rows.Close()

	var records []*models.AccountInterest
	for rows.Next() {
		var rec models.AccountInterest
		err := rows.Scan(
			&rec.ID,
			&rec.AccountID,
			&rec.BankID,
			&rec.Recipient,
			&rec.Interest,
			&rec.LowBalanceFee,
			&rec.FinalPayment,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account settlement: %w", err)
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account settlements: %w", err)
	}
	return records, nil
}

// TotalsSince sums a player's settlements created after since
func (r *AccountInterestRepository) TotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.InterestTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(interest), 0),
			COALESCE(SUM(low_balance_fee), 0),
			COALESCE(SUM(final_payment), 0),
			COUNT(DISTINCT account_id)
		FROM account_interest
		WHERE recipient_id = $1 AND created_at > $2
	`

	var totals models.InterestTotals
	err := r.q.QueryRow(ctx, query, player, since).Scan(
		&totals.Interest,
		&totals.LowBalanceFee,
		&totals.FinalPayment,
		&totals.Accounts,
	)
	if err != nil {
		return models.InterestTotals{}, fmt.Errorf("failed to total settlements for %s: %w", player, err)
	}
	return totals, nil
}
