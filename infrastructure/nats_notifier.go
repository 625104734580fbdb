package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"regionbank/models"
)

// NATSNotifier delivers player notifications to the game host over NATS
type NATSNotifier struct {
	publisher MessagePublisher
}

// NewNATSNotifier creates a new NATS notifier
func NewNATSNotifier(publisher MessagePublisher) *NATSNotifier {
	return &NATSNotifier{publisher: publisher}
}

// Notify publishes the notification on the player's subject
func (n *NATSNotifier) Notify(ctx context.Context, notification models.Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	subject := SubjectNotifyPrefix + notification.Player.String()
	return n.publisher.Publish(ctx, subject, data, uuid.NewString())
}
