package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionalBus_FlushDeliversAfterCommit(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan BankConfigChangedEvent, 1)
	mainBus.Subscribe(EventTypeBankConfigChanged, func(ctx context.Context, event Event) {
		if changed, ok := event.(BankConfigChangedEvent); ok {
			received <- changed
		}
	})

	transactionalBus.Publish(BankConfigChangedEvent{BankID: 42})
	assert.Equal(t, 1, transactionalBus.Pending())

	select {
	case <-received:
		t.Fatal("event delivered before flush")
	case <-time.After(20 * time.Millisecond):
	}

	transactionalBus.Flush()
	assert.Equal(t, 0, transactionalBus.Pending())

	select {
	case changed := <-received:
		assert.Equal(t, int64(42), changed.BankID)
	case <-time.After(time.Second):
		t.Fatal("event not delivered after flush")
	}
}

func TestTransactionalBus_DiscardDropsEvents(t *testing.T) {
	mainBus := NewBus()
	transactionalBus := NewTransactionalBus(mainBus)

	received := make(chan Event, 1)
	mainBus.Subscribe(EventTypeBankConfigChanged, func(ctx context.Context, event Event) {
		received <- event
	})

	transactionalBus.Publish(BankConfigChangedEvent{BankID: 1})
	transactionalBus.Discard()
	transactionalBus.Flush()

	select {
	case <-received:
		t.Fatal("discarded event was delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTransactionalBus_NilBusFlushIsSafe(t *testing.T) {
	transactionalBus := NewTransactionalBus(nil)
	transactionalBus.Publish(BankConfigChangedEvent{BankID: 1})

	assert.NotPanics(t, transactionalBus.Flush)
	assert.Equal(t, 0, transactionalBus.Pending())
}
