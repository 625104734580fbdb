package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"regionbank/events"
	"regionbank/service"
)

// PresenceMessage is the payload of players.joined and players.quit
type PresenceMessage struct {
	Player uuid.UUID `json:"player"`
	At     time.Time `json:"at"`
}

// SessionStore remembers when players were last present
type SessionStore interface {
	RecordSeen(ctx context.Context, player uuid.UUID, at time.Time) error
	LastSeen(ctx context.Context, player uuid.UUID) (time.Time, error)
}

// PresenceTracker keeps the set of players currently in the world, fed by join
// and quit messages from the game host
type PresenceTracker struct {
	sessions  SessionStore
	publisher service.EventPublisher
	now       func() time.Time

	mu     sync.RWMutex
	online map[uuid.UUID]struct{}
}

// NewPresenceTracker creates a new presence tracker
func NewPresenceTracker(sessions SessionStore, publisher service.EventPublisher) *PresenceTracker {
	return &PresenceTracker{
		sessions:  sessions,
		publisher: publisher,
		now:       time.Now,
		online:    make(map[uuid.UUID]struct{}),
	}
}

// Start subscribes the tracker to the presence subjects
func (p *PresenceTracker) Start(subscriber MessageSubscriber) error {
	if err := subscriber.Subscribe(SubjectPlayerJoined, p.handleJoined); err != nil {
		return err
	}
	return subscriber.Subscribe(SubjectPlayerQuit, p.handleQuit)
}

// IsPresent reports whether the player is currently in the world
func (p *PresenceTracker) IsPresent(player uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.online[player]
	return ok
}

// OnlineCount returns the number of players currently present
func (p *PresenceTracker) OnlineCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.online)
}

// Join marks a player present and announces the return with the time they were
// last seen. A repeated join is ignored.
func (p *PresenceTracker) Join(ctx context.Context, player uuid.UUID) error {
	p.mu.Lock()
	if _, ok := p.online[player]; ok {
		p.mu.Unlock()
		return nil
	}
	p.online[player] = struct{}{}
	p.mu.Unlock()

	lastSeen, err := p.sessions.LastSeen(ctx, player)
	if err != nil {
		// Presence is already recorded; only the catch-up summary is lost
		log.WithField("player", player).WithError(err).Warn("Failed to load last seen time")
		lastSeen = time.Time{}
	}

	log.WithFields(log.Fields{
		"player":    player,
		"last_seen": lastSeen,
	}).Debug("Player joined")

	if p.publisher != nil {
		p.publisher.Publish(events.PlayerJoinedEvent{Player: player, LastSeen: lastSeen})
	}
	return nil
}

// Quit marks a player absent and records when they left
func (p *PresenceTracker) Quit(ctx context.Context, player uuid.UUID, at time.Time) error {
	p.mu.Lock()
	delete(p.online, player)
	p.mu.Unlock()

	if at.IsZero() {
		at = p.now()
	}
	if err := p.sessions.RecordSeen(ctx, player, at); err != nil {
		return fmt.Errorf("failed to record quit for player %s: %w", player, err)
	}

	log.WithField("player", player).Debug("Player quit")

	if p.publisher != nil {
		p.publisher.Publish(events.PlayerQuitEvent{Player: player, At: at})
	}
	return nil
}

func (p *PresenceTracker) handleJoined(data []byte) error {
	msg, err := decodePresence(data)
	if err != nil {
		return err
	}
	return p.Join(context.Background(), msg.Player)
}

func (p *PresenceTracker) handleQuit(data []byte) error {
	msg, err := decodePresence(data)
	if err != nil {
		return err
	}
	return p.Quit(context.Background(), msg.Player, msg.At)
}

func decodePresence(data []byte) (PresenceMessage, error) {
	var msg PresenceMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return PresenceMessage{}, fmt.Errorf("failed to decode presence message: %w", err)
	}
	if msg.Player == uuid.Nil {
		return PresenceMessage{}, fmt.Errorf("presence message has no player")
	}
	return msg, nil
}
