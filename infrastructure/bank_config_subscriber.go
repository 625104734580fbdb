package infrastructure

import (
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"regionbank/events"
	"regionbank/service"
)

// BankConfigMessage is the payload of banks.config.changed. BankID zero means
// the global defaults changed.
type BankConfigMessage struct {
	BankID int64 `json:"bank_id"`
}

// BankConfigSubscriber relays configuration changes made by other processes
// onto the local event bus
type BankConfigSubscriber struct {
	publisher service.EventPublisher
}

// NewBankConfigSubscriber creates a new bank config subscriber
func NewBankConfigSubscriber(publisher service.EventPublisher) *BankConfigSubscriber {
	return &BankConfigSubscriber{publisher: publisher}
}

// Start subscribes to configuration change messages
func (s *BankConfigSubscriber) Start(subscriber MessageSubscriber) error {
	return subscriber.Subscribe(SubjectBankConfigChanged, s.handle)
}

func (s *BankConfigSubscriber) handle(data []byte) error {
	var msg BankConfigMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to decode bank config message: %w", err)
	}

	log.WithField("bank_id", msg.BankID).Info("Received bank configuration change")
	s.publisher.Publish(events.BankConfigChangedEvent{BankID: msg.BankID})
	return nil
}
