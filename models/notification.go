package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NotificationCategory classifies an aggregated payout message
type NotificationCategory string

const (
	NotificationInterestEarned NotificationCategory = "interest_earned"
	NotificationInterestPaid   NotificationCategory = "interest_paid"
	NotificationFeePaid        NotificationCategory = "fee_paid"
	NotificationFeeReceived    NotificationCategory = "fee_received"
	NotificationRevenueEarned  NotificationCategory = "revenue_earned"
	NotificationOfflineSummary NotificationCategory = "offline_summary"
)

// NotificationCategories lists the per-cycle categories in delivery order
var NotificationCategories = []NotificationCategory{
	NotificationInterestEarned,
	NotificationInterestPaid,
	NotificationFeePaid,
	NotificationFeeReceived,
	NotificationRevenueEarned,
}

// Notification is one aggregated message to a player
type Notification struct {
	Player   uuid.UUID            `json:"player"`
	Category NotificationCategory `json:"category"`
	Amount   decimal.Decimal      `json:"amount"`
	Count    int                  `json:"count"`
	Message  string               `json:"message"`
}
