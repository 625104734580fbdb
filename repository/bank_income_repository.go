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

// BankIncomeRepository stores the append-only bank income ledger
type BankIncomeRepository struct {
	q queryable
}

// NewBankIncomeRepository creates a new bank income repository
func NewBankIncomeRepository(db *database.DB) *BankIncomeRepository {
	return &BankIncomeRepository{q: db.Pool}
}

func newBankIncomeRepositoryWithTx(tx queryable) *BankIncomeRepository {
	return &BankIncomeRepository{q: tx}
}

// RecordBatch appends bank income records
func (r *BankIncomeRepository) RecordBatch(ctx context.Context, records []models.BankIncome) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO bank_income
		(id, bank_id, recipient_id, revenue, interest_paid, fees_collected, net_income, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.ID,
			rec.BankID,
			ownerArg(rec.Recipient),
			rec.Revenue,
			rec.InterestPaid,
			rec.FeesCollected,
			rec.NetIncome,
			rec.CreatedAt,
		)
	}

	if err := execBatch(ctx, r.q, batch); err != nil {
		return fmt.Errorf("failed to record %d bank incomes: %w", len(records), err)
	}
	return nil
}

// GetByBank returns the most recent income records of a bank, newest first
func (r *BankIncomeRepository) GetByBank(ctx context.Context, bankID int64, limit int) ([]*models.BankIncome, error) {
	query := `
		SELECT id, bank_id, recipient_id, revenue, interest_paid, fees_collected, net_income, created_at
		FROM bank_income
		WHERE bank_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, bankID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query income for bank %d: %w", bankID, err)
	}
	defer rows.Close()

	var records []*models.BankIncome
	for rows.Next() {
		var rec models.BankIncome
		var recipient uuid.NullUUID
		err := rows.Scan(
			&rec.ID,
			&rec.BankID,
			&recipient,
			&rec.Revenue,
			&rec.InterestPaid,
			&rec.FeesCollected,
			&rec.NetIncome,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank income: %w", err)
		}
		if recipient.Valid {
			id := recipient.UUID
			rec.Recipient = &id
		}
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank income: %w", err)
	}
	return records, nil
}

// TotalsSince sums a bank owner's income records created after since
func (r *BankIncomeRepository) TotalsSince(ctx context.Context, player uuid.UUID, since time.Time) (models.IncomeTotals, error) {
	query := `
		SELECT
			COALESCE(SUM(revenue), 0),
			COALESCE(SUM(interest_paid), 0),
			COALESCE(SUM(fees_collected), 0),
			COALESCE(SUM(net_income), 0),
			COUNT(DISTINCT bank_id)
		FROM bank_income
		WHERE recipient_id = $1 AND created_at > $2
	`

	var totals models.IncomeTotals
	err := r.q.QueryRow(ctx, query, player, since).Scan(
		&totals.Revenue,
		&totals.InterestPaid,
		&totals.FeesCollected,
		&totals.NetIncome,
		&totals.Banks,
	)
	if err != nil {
		return models.IncomeTotals{}, fmt.Errorf("failed to total bank income for %s: %w", player, err)
	}
	return totals, nil
}
