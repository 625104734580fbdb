package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBus_EmitDeliversToSubscribers(t *testing.T) {
	bus := NewBus()

	received := make(chan PlayerJoinedEvent, 2)
	var wg sync.WaitGroup
	wg.Add(2)

	handler := func(ctx context.Context, event Event) {
		defer wg.Done()
		joined, ok := event.(PlayerJoinedEvent)
		if !ok {
			t.Errorf("expected PlayerJoinedEvent, got %T", event)
			return
		}
		received <- joined
	}
	bus.Subscribe(EventTypePlayerJoined, handler)
	bus.Subscribe(EventTypePlayerJoined, handler)

	player := uuid.New()
	bus.Emit(context.Background(), PlayerJoinedEvent{Player: player})

	wg.Wait()
	close(received)
	for event := range received {
		assert.Equal(t, player, event.Player)
	}
}

func TestBus_OnlyMatchingTypeIsDelivered(t *testing.T) {
	bus := NewBus()

	called := make(chan struct{}, 1)
	bus.Subscribe(EventTypeBankConfigChanged, func(ctx context.Context, event Event) {
		called <- struct{}{}
	})

	bus.Publish(PlayerQuitEvent{Player: uuid.New(), At: time.Now()})

	select {
	case <-called:
		t.Fatal("handler for a different event type was called")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_PanickingHandlerDoesNotAffectOthers(t *testing.T) {
	bus := NewBus()

	done := make(chan struct{})
	bus.Subscribe(EventTypeBankConfigChanged, func(ctx context.Context, event Event) {
		panic("boom")
	})
	bus.Subscribe(EventTypeBankConfigChanged, func(ctx context.Context, event Event) {
		close(done)
	})

	bus.Publish(BankConfigChangedEvent{BankID: 7})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("healthy handler was not called")
	}
}
