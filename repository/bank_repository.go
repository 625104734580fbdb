package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"regionbank/database"
	"regionbank/events"
	"regionbank/models"
	"regionbank/service"
)

const bankColumns = `
	id, name, owner_id, interest_rate, multipliers, minimum_balance, low_balance_fee,
	pay_on_low_balance, allowed_offline_payouts, offline_multiplier_decrement,
	withdrawal_multiplier_decrement, count_interest_delay_offline, initial_interest_delay,
	revenue_formula, created_at`

const accountColumns = `
	id, bank_id, name, owner_id, balance, previous_balance, multiplier_stage,
	remaining_offline_payouts, delay_until_next_payout, created_at, updated_at`

// BankRepository loads banks with their accounts and resolves their configuration
// against the global defaults
type BankRepository struct {
	q         queryable
	defaults  models.BankConfig
	publisher service.EventPublisher
}

// NewBankRepository creates a new bank repository
func NewBankRepository(db *database.DB, defaults models.BankConfig, publisher service.EventPublisher) *BankRepository {
	return &BankRepository{q: db.Pool, defaults: defaults, publisher: publisher}
}

// newBankRepositoryWithTx creates a bank repository bound to a transaction
func newBankRepositoryWithTx(tx queryable, defaults models.BankConfig, publisher service.EventPublisher) *BankRepository {
	return &BankRepository{q: tx, defaults: defaults, publisher: publisher}
}

// LoadAll returns every bank with accounts and resolved configuration
func (r *BankRepository) LoadAll(ctx context.Context) ([]*models.Bank, error) {
	return r.load(ctx, "", nil)
}

// LoadByIDs returns the listed banks; unknown ids are ignored
func (r *BankRepository) LoadByIDs(ctx context.Context, ids []int64) ([]*models.Bank, error) {
	if len(ids) == 0 {
		return []*models.Bank{}, nil
	}
	return r.load(ctx, "WHERE id = ANY($1)", ids)
}

// GetByID returns one bank, or nil when it does not exist
func (r *BankRepository) GetByID(ctx context.Context, id int64) (*models.Bank, error) {
	banks, err := r.LoadByIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(banks) == 0 {
		return nil, nil
	}
	return banks[0], nil
}

func (r *BankRepository) load(ctx context.Context, where string, ids []int64) ([]*models.Bank, error) {
	query := `SELECT ` + bankColumns + ` FROM banks ` + where + ` ORDER BY id`

	var rows pgx.Rows
	var err error
	if ids != nil {
		rows, err = r.q.Query(ctx, query, ids)
	} else {
		rows, err = r.q.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query banks: %w", err)
	}

	var banks []*models.Bank
	byID := make(map[int64]*models.Bank)
	for rows.Next() {
		bank, err := scanBank(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		banks = append(banks, bank)
		byID[bank.ID] = bank
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate banks: %w", err)
	}
	if len(banks) == 0 {
		return []*models.Bank{}, nil
	}

	bankIDs := make([]int64, 0, len(banks))
	for _, bank := range banks {
		bankIDs = append(bankIDs, bank.ID)
	}

	if err := r.loadPayoutTimes(ctx, bankIDs, byID); err != nil {
		return nil, err
	}
	if err := r.loadAccounts(ctx, bankIDs, byID); err != nil {
		return nil, err
	}

	for _, bank := range banks {
		bank.Config = bank.Overrides.Resolve(r.defaults)
	}
	return banks, nil
}

func scanBank(rows pgx.Rows) (*models.Bank, error) {
	var (
		bank              models.Bank
		owner             uuid.NullUUID
		interestRate      decimal.NullDecimal
		multipliers       []int32
		minimumBalance    decimal.NullDecimal
		lowBalanceFee     decimal.NullDecimal
		allowedOffline    *int32
		offlineDecrement  *int32
		withdrawDecrement *int32
		initialDelay      *int32
	)
	o := &bank.Overrides

	err := rows.Scan(
		&bank.ID,
		&bank.Name,
		&owner,
		&interestRate,
		&multipliers,
		&minimumBalance,
		&lowBalanceFee,
		&o.PayOnLowBalance,
		&allowedOffline,
		&offlineDecrement,
		&withdrawDecrement,
		&o.CountInterestDelayOffline,
		&initialDelay,
		&o.RevenueFormula,
		&bank.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan bank: %w", err)
	}

	if owner.Valid {
		id := owner.UUID
		bank.Owner = &id
	}
	o.InterestRate = nullDecimalPtr(interestRate)
	o.MinimumBalance = nullDecimalPtr(minimumBalance)
	o.LowBalanceFee = nullDecimalPtr(lowBalanceFee)
	if multipliers != nil {
		o.Multipliers = make([]int, len(multipliers))
		for i, m := range multipliers {
			o.Multipliers[i] = int(m)
		}
	}
	o.AllowedOfflinePayouts = intPtr(allowedOffline)
	o.OfflineMultiplierDecrement = intPtr(offlineDecrement)
	o.WithdrawalMultiplierDecrement = intPtr(withdrawDecrement)
	o.InitialInterestDelay = intPtr(initialDelay)

	return &bank, nil
}

func (r *BankRepository) loadPayoutTimes(ctx context.Context, bankIDs []int64, byID map[int64]*models.Bank) error {
	query := `
		SELECT bank_id, payout_time
		FROM bank_payout_times
		WHERE bank_id = ANY($1)
		ORDER BY bank_id, payout_time
	`

	rows, err := r.q.Query(ctx, query, bankIDs)
	if err != nil {
		return fmt.Errorf("failed to query payout times: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bankID int64
		var minutes int16
		if err := rows.Scan(&bankID, &minutes); err != nil {
			return fmt.Errorf("failed to scan payout time: %w", err)
		}
		if bank, ok := byID[bankID]; ok {
			bank.Overrides.PayoutTimes = append(bank.Overrides.PayoutTimes, models.TimeOfDayFromMinutes(int(minutes)))
		}
	}
	return rows.Err()
}

func (r *BankRepository) loadAccounts(ctx context.Context, bankIDs []int64, byID map[int64]*models.Bank) error {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE bank_id = ANY($1) ORDER BY bank_id, id`

	rows, err := r.q.Query(ctx, query, bankIDs)
	if err != nil {
		return fmt.Errorf("failed to query accounts: %w", err)
	}

	accounts := make(map[int64]*models.Account)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			rows.Close()
			return err
		}
		accounts[account.ID] = account
		if bank, ok := byID[account.BankID]; ok {
			bank.Accounts = append(bank.Accounts, account)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate accounts: %w", err)
	}

	coOwnerQuery := `
		SELECT c.account_id, c.player_id
		FROM account_co_owners c
		JOIN accounts a ON a.id = c.account_id
		WHERE a.bank_id = ANY($1)
		ORDER BY c.account_id, c.player_id
	`
	coRows, err := r.q.Query(ctx, coOwnerQuery, bankIDs)
	if err != nil {
		return fmt.Errorf("failed to query co-owners: %w", err)
	}
	defer coRows.Close()

	for coRows.Next() {
		var accountID int64
		var player uuid.UUID
		if err := coRows.Scan(&accountID, &player); err != nil {
			return fmt.Errorf("failed to scan co-owner: %w", err)
		}
		if account, ok := accounts[accountID]; ok {
			account.CoOwners = append(account.CoOwners, player)
		}
	}
	return coRows.Err()
}

// Create inserts a bank with its overrides and payout times
func (r *BankRepository) Create(ctx context.Context, bank *models.Bank) error {
	query := `
		INSERT INTO banks (
			name, owner_id, interest_rate, multipliers, minimum_balance, low_balance_fee,
			pay_on_low_balance, allowed_offline_payouts, offline_multiplier_decrement,
			withdrawal_multiplier_decrement, count_interest_delay_offline, initial_interest_delay,
			revenue_formula
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`
	o := bank.Overrides
	err := r.q.QueryRow(ctx, query, append([]any{bank.Name, ownerArg(bank.Owner)}, overrideArgs(o)...)...).
		Scan(&bank.ID, &bank.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bank %q: %w", bank.Name, err)
	}

	if err := r.replacePayoutTimes(ctx, bank.ID, o.PayoutTimes); err != nil {
		return err
	}

	bank.Config = o.Resolve(r.defaults)
	return nil
}

// UpdateConfig replaces a bank's overrides and payout times and announces the
// change so the payout schedule is re-derived
func (r *BankRepository) UpdateConfig(ctx context.Context, bankID int64, overrides models.BankConfigOverrides) error {
	query := `
		UPDATE banks SET
			interest_rate = $2,
			multipliers = $3,
			minimum_balance = $4,
			low_balance_fee = $5,
			pay_on_low_balance = $6,
			allowed_offline_payouts = $7,
			offline_multiplier_decrement = $8,
			withdrawal_multiplier_decrement = $9,
			count_interest_delay_offline = $10,
			initial_interest_delay = $11,
			revenue_formula = $12
		WHERE id = $1
	`
	result, err := r.q.Exec(ctx, query, append([]any{bankID}, overrideArgs(overrides)...)...)
	if err != nil {
		return fmt.Errorf("failed to update bank %d: %w", bankID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("bank %d not found", bankID)
	}

	if err := r.replacePayoutTimes(ctx, bankID, overrides.PayoutTimes); err != nil {
		return err
	}

	if r.publisher != nil {
		r.publisher.Publish(events.BankConfigChangedEvent{BankID: bankID})
	}
	return nil
}

// replacePayoutTimes stores the bank's own payout times. A nil slice leaves the
// bank on the default times.
func (r *BankRepository) replacePayoutTimes(ctx context.Context, bankID int64, times []models.TimeOfDay) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM bank_payout_times WHERE bank_id = $1`, bankID)
	for _, t := range times {
		batch.Queue(`
			INSERT INTO bank_payout_times (bank_id, payout_time)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, bankID, int16(t.Minutes()))
	}
	if err := execBatch(ctx, r.q, batch); err != nil {
		return fmt.Errorf("failed to store payout times for bank %d: %w", bankID, err)
	}
	return nil
}

func overrideArgs(o models.BankConfigOverrides) []any {
	var multipliers []int32
	if o.Multipliers != nil {
		multipliers = make([]int32, len(o.Multipliers))
		for i, m := range o.Multipliers {
			multipliers[i] = int32(m)
		}
	}
	return []any{
		decimalPtrArg(o.InterestRate),
		multipliers,
		decimalPtrArg(o.MinimumBalance),
		decimalPtrArg(o.LowBalanceFee),
		o.PayOnLowBalance,
		int32PtrArg(o.AllowedOfflinePayouts),
		int32PtrArg(o.OfflineMultiplierDecrement),
		int32PtrArg(o.WithdrawalMultiplierDecrement),
		o.CountInterestDelayOffline,
		int32PtrArg(o.InitialInterestDelay),
		o.RevenueFormula,
	}
}

func ownerArg(owner *uuid.UUID) uuid.NullUUID {
	if owner == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *owner, Valid: true}
}

func decimalPtrArg(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func nullDecimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func int32PtrArg(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func intPtr(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
