package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"regionbank/models"
)

// AccountPayout is an amount owed to or by an account holder, snapshotted at
// settlement time
type AccountPayout struct {
	AccountID int64
	BankID    int64
	Holder    uuid.UUID
	BankOwner *uuid.UUID // nil for admin banks
	Amount    decimal.Decimal
}

// BankPayout is revenue owed to a bank owner
type BankPayout struct {
	BankID int64
	Owner  *uuid.UUID
	Amount decimal.Decimal
}

// PaymentBatch holds every monetary movement produced by one payout cycle
type PaymentBatch struct {
	Interest []AccountPayout
	Fees     []AccountPayout
	Revenue  []BankPayout
}

// IsEmpty reports whether the batch contains no payouts
func (b PaymentBatch) IsEmpty() bool {
	return len(b.Interest) == 0 && len(b.Fees) == 0 && len(b.Revenue) == 0
}

// categoryTotal accumulates one notification category for one player
type categoryTotal struct {
	amount  decimal.Decimal
	sources map[int64]struct{}
}

// PlayerLedger is the netted position of one player for one cycle
type PlayerLedger struct {
	Player     uuid.UUID
	Net        decimal.Decimal
	categories map[models.NotificationCategory]*categoryTotal
}

func newPlayerLedger(player uuid.UUID) *PlayerLedger {
	return &PlayerLedger{
		Player:     player,
		Net:        decimal.Zero,
		categories: make(map[models.NotificationCategory]*categoryTotal),
	}
}

// post records a signed movement in the ledger. The category total is kept as a
// positive amount; source identifies the contributing account or bank.
func (l *PlayerLedger) post(category models.NotificationCategory, source int64, signed decimal.Decimal) {
	l.Net = l.Net.Add(signed)
	total, ok := l.categories[category]
	if !ok {
		total = &categoryTotal{amount: decimal.Zero, sources: make(map[int64]struct{})}
		l.categories[category] = total
	}
	total.amount = total.amount.Add(signed.Abs())
	total.sources[source] = struct{}{}
}

// Category returns the total amount and contributing source count for a category
func (l *PlayerLedger) Category(category models.NotificationCategory) (decimal.Decimal, int) {
	total, ok := l.categories[category]
	if !ok {
		return decimal.Zero, 0
	}
	return total.amount, len(total.sources)
}

// DistributionResult reports the outcome of a distribution pass
type DistributionResult struct {
	Succeeded []uuid.UUID
	Failed    []uuid.UUID
	Skipped   []uuid.UUID // net amount exactly zero
}

// PaymentDistributor nets a cycle's payouts into one transaction per player
type PaymentDistributor struct {
	economy  Economy
	presence PresenceLookup
	notifier Notifier
}

// NewPaymentDistributor creates a new payment distributor
func NewPaymentDistributor(economy Economy, presence PresenceLookup, notifier Notifier) *PaymentDistributor {
	return &PaymentDistributor{
		economy:  economy,
		presence: presence,
		notifier: notifier,
	}
}

// BuildLedger folds every payout of the batch exactly once into per-player
// positions. Legs where payer and payee are the same player are dropped.
func BuildLedger(batch PaymentBatch) map[uuid.UUID]*PlayerLedger {
	ledger := make(map[uuid.UUID]*PlayerLedger)
	entry := func(player uuid.UUID) *PlayerLedger {
		l, ok := ledger[player]
		if !ok {
			l = newPlayerLedger(player)
			ledger[player] = l
		}
		return l
	}

	for _, p := range batch.Interest {
		if p.Amount.IsZero() || isSelfPayment(p) {
			continue
		}
		entry(p.Holder).post(models.NotificationInterestEarned, p.AccountID, p.Amount)
		if p.BankOwner != nil {
			entry(*p.BankOwner).post(models.NotificationInterestPaid, p.AccountID, p.Amount.Neg())
		}
	}

	for _, p := range batch.Fees {
		if p.Amount.IsZero() || isSelfPayment(p) {
			continue
		}
		entry(p.Holder).post(models.NotificationFeePaid, p.AccountID, p.Amount.Neg())
		if p.BankOwner != nil {
			entry(*p.BankOwner).post(models.NotificationFeeReceived, p.AccountID, p.Amount)
		}
	}

	for _, p := range batch.Revenue {
		if p.Amount.IsZero() || p.Owner == nil {
			continue
		}
		entry(*p.Owner).post(models.NotificationRevenueEarned, p.BankID, p.Amount)
	}

	return ledger
}

func isSelfPayment(p AccountPayout) bool {
	return p.BankOwner != nil && *p.BankOwner == p.Holder
}

// Distribute submits one transaction per player with a nonzero net amount. A
// failure for one player is logged and does not stop the others.
func (d *PaymentDistributor) Distribute(ctx context.Context, batch PaymentBatch) DistributionResult {
	var result DistributionResult
	ledger := BuildLedger(batch)

	players := make([]uuid.UUID, 0, len(ledger))
	for player := range ledger {
		players = append(players, player)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].String() < players[j].String()
	})

	for _, player := range players {
		entry := ledger[player]
		if entry.Net.IsZero() {
			result.Skipped = append(result.Skipped, player)
			continue
		}

		if err := d.economy.Transact(ctx, player, entry.Net); err != nil {
			log.WithFields(log.Fields{
				"player": player,
				"amount": entry.Net.StringFixed(models.MoneyScale),
			}).WithError(err).Error("Payout transaction failed")
			result.Failed = append(result.Failed, player)
			continue
		}
		result.Succeeded = append(result.Succeeded, player)

		if d.presence.IsPresent(player) {
			d.notify(ctx, entry)
		}
	}

	log.WithFields(log.Fields{
		"players":   len(players),
		"succeeded": len(result.Succeeded),
		"failed":    len(result.Failed),
		"skipped":   len(result.Skipped),
	}).Info("Payment distribution completed")

	return result
}

// notify sends one message per category the player took part in
func (d *PaymentDistributor) notify(ctx context.Context, entry *PlayerLedger) {
	for _, category := range models.NotificationCategories {
		amount, count := entry.Category(category)
		if count == 0 {
			continue
		}
		notification := models.Notification{
			Player:   entry.Player,
			Category: category,
			Amount:   amount,
			Count:    count,
			Message:  d.describe(category, amount, count),
		}
		if err := d.notifier.Notify(ctx, notification); err != nil {
			log.WithFields(log.Fields{
				"player":   entry.Player,
				"category": category,
			}).WithError(err).Warn("Failed to send payout notification")
		}
	}
}

func (d *PaymentDistributor) describe(category models.NotificationCategory, amount decimal.Decimal, count int) string {
	formatted := d.economy.Format(amount)
	switch category {
	case models.NotificationInterestEarned:
		return fmt.Sprintf("You earned %s in interest on %s.", formatted, plural(count, "account"))
	case models.NotificationInterestPaid:
		return fmt.Sprintf("You paid %s in interest to %s.", formatted, plural(count, "account"))
	case models.NotificationFeePaid:
		return fmt.Sprintf("You paid %s in low balance fees on %s.", formatted, plural(count, "account"))
	case models.NotificationFeeReceived:
		return fmt.Sprintf("You received %s in low balance fees from %s.", formatted, plural(count, "account"))
	case models.NotificationRevenueEarned:
		return fmt.Sprintf("You earned %s in revenue from %s.", formatted, plural(count, "bank"))
	default:
		return fmt.Sprintf("%s: %s", category, formatted)
	}
}

func plural(count int, noun string) string {
	if count == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", count, noun)
}
