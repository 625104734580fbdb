package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"regionbank/database"
	"regionbank/models"
	"regionbank/service"
)

// EconomyRepository is the player currency ledger. It is the Economy the payment
// distributor transacts against.
type EconomyRepository struct {
	q queryable
}

// NewEconomyRepository creates a new economy repository
func NewEconomyRepository(db *database.DB) *EconomyRepository {
	return &EconomyRepository{q: db.Pool}
}

// Transact credits a positive amount or debits a negative one. A debit that would
// take the balance below zero fails with service.ErrInsufficientFunds and changes
// nothing.
func (r *EconomyRepository) Transact(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error {
	amount = models.RoundMoney(amount)
	switch {
	case amount.IsZero():
		return nil
	case amount.IsPositive():
		return r.credit(ctx, player, amount)
	default:
		return r.debit(ctx, player, amount.Neg())
	}
}

func (r *EconomyRepository) credit(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error {
	query := `
		INSERT INTO player_balances (player_id, balance)
		VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE
		SET balance = player_balances.balance + EXCLUDED.balance, updated_at = NOW()
	`

	if _, err := r.q.Exec(ctx, query, player, amount); err != nil {
		return fmt.Errorf("failed to credit %s to player %s: %w", amount.StringFixed(models.MoneyScale), player, err)
	}
	return nil
}

func (r *EconomyRepository) debit(ctx context.Context, player uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE player_balances
		SET balance = balance - $2, updated_at = NOW()
		WHERE player_id = $1 AND balance >= $2
	`

	result, err := r.q.Exec(ctx, query, player, amount)
	if err != nil {
		return fmt.Errorf("failed to debit %s from player %s: %w", amount.StringFixed(models.MoneyScale), player, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("debit of %s from player %s: %w", amount.StringFixed(models.MoneyScale), player, service.ErrInsufficientFunds)
	}
	return nil
}

// Balance returns a player's balance; unknown players have zero
func (r *EconomyRepository) Balance(ctx context.Context, player uuid.UUID) (decimal.Decimal, error) {
	query := `SELECT balance FROM player_balances WHERE player_id = $1`

	var balance decimal.Decimal
	err := r.q.QueryRow(ctx, query, player).Scan(&balance)
	if errorsIsNoRows(err) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get balance for player %s: %w", player, err)
	}
	return balance, nil
}

// Format renders an amount as dollars with thousands separators, e.g. $1,234.50
func (r *EconomyRepository) Format(amount decimal.Decimal) string {
	return FormatMoney(amount)
}

// FormatMoney renders an amount as dollars with thousands separators
func FormatMoney(amount decimal.Decimal) string {
	fixed := models.RoundMoney(amount).StringFixed(models.MoneyScale)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign = "-"
		fixed = fixed[1:]
	}

	whole, frac, _ := strings.Cut(fixed, ".")
	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}
	return sign + "$" + grouped.String() + "." + frac
}
