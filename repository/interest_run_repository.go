package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"regionbank/database"
	"regionbank/models"
)

const interestRunColumns = `
	id, payout_time, fired_at, banks_processed, accounts_settled, accounts_skipped,
	total_interest_distributed, total_fees_collected, execution_summary, created_at`

// InterestRunRepository records one summary row per scheduler firing
type InterestRunRepository struct {
	q queryable
}

// NewInterestRunRepository creates a new interest run repository
func NewInterestRunRepository(db *database.DB) *InterestRunRepository {
	return &InterestRunRepository{q: db.Pool}
}

func newInterestRunRepositoryWithTx(tx queryable) *InterestRunRepository {
	return &InterestRunRepository{q: tx}
}

// Create creates a new interest run record. A second record for the same
// firing is ignored.
func (r *InterestRunRepository) Create(ctx context.Context, run *models.InterestRun) error {
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	query := `
		INSERT INTO interest_runs
		(payout_time, fired_at, banks_processed, accounts_settled, accounts_skipped,
		 total_interest_distributed, total_fees_collected, execution_summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (payout_time, fired_at) DO NOTHING
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query,
		int16(run.PayoutTime.Minutes()),
		run.FiredAt,
		run.BanksProcessed,
		run.AccountsSettled,
		run.AccountsSkipped,
		run.TotalInterestDistributed,
		run.TotalFeesCollected,
		summaryJSON,
	).Scan(&run.ID, &run.CreatedAt)

	if errorsIsNoRows(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create interest run for %s at %s: %w",
			run.PayoutTime, run.FiredAt.Format(time.RFC3339), err)
	}

	return nil
}

// GetLatest returns the most recent interest run
func (r *InterestRunRepository) GetLatest(ctx context.Context) (*models.InterestRun, error) {
	query := `SELECT ` + interestRunColumns + ` FROM interest_runs ORDER BY fired_at DESC, id DESC LIMIT 1`

	run, err := scanInterestRun(r.q.QueryRow(ctx, query))
	if errorsIsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest interest run: %w", err)
	}
	return run, nil
}

// ListSince returns the runs fired at or after since, oldest first
func (r *InterestRunRepository) ListSince(ctx context.Context, since time.Time) ([]*models.InterestRun, error) {
	query := `SELECT ` + interestRunColumns + ` FROM interest_runs WHERE fired_at >= $1 ORDER BY fired_at, id`

	rows, err := r.q.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query interest runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.InterestRun
	for rows.Next() {
		run, err := scanInterestRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan interest run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interest runs: %w", err)
	}
	return runs, nil
}

func scanInterestRun(row pgx.Row) (*models.InterestRun, error) {
	var run models.InterestRun
	var minutes int16
	var summaryJSON []byte

	err := row.Scan(
		&run.ID,
		&minutes,
		&run.FiredAt,
		&run.BanksProcessed,
		&run.AccountsSettled,
		&run.AccountsSkipped,
		&run.TotalInterestDistributed,
		&run.TotalFeesCollected,
		&summaryJSON,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.PayoutTime = models.TimeOfDayFromMinutes(int(minutes))

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}
	return &run, nil
}
