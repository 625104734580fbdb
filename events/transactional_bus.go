package events

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// TransactionalBus holds events published inside a database transaction until
// the transaction commits
type TransactionalBus struct {
	real    *Bus
	pending []Event // stashed until Flush
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Pending returns the number of events waiting for Flush
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

// Flush is called after a successful commit. Events are emitted with a fresh
// context so handlers outlive the transaction.
func (b *TransactionalBus) Flush() {
	pending := b.pending
	b.pending = nil
	if b.real == nil {
		return
	}

	log.WithField("pendingEventCount", len(pending)).Debug("Flushing pending events to main event bus")
	for _, ev := range pending {
		b.real.Emit(context.Background(), ev)
	}
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
