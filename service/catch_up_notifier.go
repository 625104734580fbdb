package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"regionbank/events"
	"regionbank/models"
)

// CatchUpNotifier tells a returning player what their accounts and banks did
// while they were away
type CatchUpNotifier struct {
	totals   SettlementTotals
	economy  Economy
	notifier Notifier
}

// NewCatchUpNotifier creates a new catch-up notifier
func NewCatchUpNotifier(totals SettlementTotals, economy Economy, notifier Notifier) *CatchUpNotifier {
	return &CatchUpNotifier{
		totals:   totals,
		economy:  economy,
		notifier: notifier,
	}
}

// HandlePlayerJoined is an event bus handler for PlayerJoinedEvent
func (c *CatchUpNotifier) HandlePlayerJoined(ctx context.Context, event events.Event) {
	joined, ok := event.(events.PlayerJoinedEvent)
	if !ok {
		return
	}
	if err := c.NotifyReturningPlayer(ctx, joined); err != nil {
		log.WithField("player", joined.Player).WithError(err).Warn("Failed to send offline summary")
	}
}

// NotifyReturningPlayer sends one summary covering everything settled since the
// player was last seen. Players never seen before and players with nothing to
// report get no message.
func (c *CatchUpNotifier) NotifyReturningPlayer(ctx context.Context, joined events.PlayerJoinedEvent) error {
	if joined.LastSeen.IsZero() {
		return nil
	}

	interest, err := c.totals.InterestTotalsSince(ctx, joined.Player, joined.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to load interest totals: %w", err)
	}
	income, err := c.totals.IncomeTotalsSince(ctx, joined.Player, joined.LastSeen)
	if err != nil {
		return fmt.Errorf("failed to load income totals: %w", err)
	}
	if interest.IsZero() && income.IsZero() {
		return nil
	}

	net := interest.FinalPayment.Add(income.NetIncome)
	notification := models.Notification{
		Player:   joined.Player,
		Category: models.NotificationOfflineSummary,
		Amount:   net,
		Count:    interest.Accounts + income.Banks,
		Message:  c.summarize(interest, income),
	}
	return c.notifier.Notify(ctx, notification)
}

func (c *CatchUpNotifier) summarize(interest models.InterestTotals, income models.IncomeTotals) string {
	var parts []string
	if !interest.Interest.IsZero() {
		parts = append(parts, fmt.Sprintf("earned %s in interest on %s",
			c.economy.Format(interest.Interest), plural(interest.Accounts, "account")))
	}
	if !interest.LowBalanceFee.IsZero() {
		parts = append(parts, fmt.Sprintf("paid %s in low balance fees", c.economy.Format(interest.LowBalanceFee)))
	}
	if !income.Revenue.IsZero() {
		parts = append(parts, fmt.Sprintf("earned %s in revenue from %s",
			c.economy.Format(income.Revenue), plural(income.Banks, "bank")))
	}
	if !income.InterestPaid.IsZero() {
		parts = append(parts, fmt.Sprintf("paid %s in interest to account holders", c.economy.Format(income.InterestPaid)))
	}
	if !income.FeesCollected.IsZero() {
		parts = append(parts, fmt.Sprintf("collected %s in low balance fees", c.economy.Format(income.FeesCollected)))
	}

	net := interest.FinalPayment.Add(income.NetIncome)
	direction := "gained"
	if net.LessThan(decimal.Zero) {
		direction = "lost"
	}
	return fmt.Sprintf("While you were offline you %s. Overall you %s %s.",
		strings.Join(parts, ", "), direction, c.economy.Format(net.Abs()))
}
