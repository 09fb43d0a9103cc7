package broadcast

import (
	"log/slog"
	"sync"

	"github.com/trisgames/tris-backend/internal/entity"
)

// Subscriber - one delivery target for session updates. Implementations
// own their write path; a slow or failed subscriber must not stall the
// hub.
type Subscriber interface {
	SendSession(session *entity.Session)
}

// Hub - fans session snapshots out to every subscriber of a session id.
// It is the notification sink of the coordinator: one Notify call per
// state-changing mutation, carrying the full updated session.
type Hub struct {
	logger *slog.Logger

	mu          sync.RWMutex
	subscribers map[string]map[Subscriber]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:      logger.With("component", "broadcast"),
		subscribers: make(map[string]map[Subscriber]struct{}),
	}
}

// Subscribe - registers a subscriber for a session id.
func (that *Hub) Subscribe(sessionID string, sub Subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.subscribers[sessionID] == nil {
		that.subscribers[sessionID] = make(map[Subscriber]struct{})
	}
	that.subscribers[sessionID][sub] = struct{}{}
}

// Unsubscribe - removes a subscriber from a session id; empty sets are
// dropped so finished games don't leak map entries.
func (that *Hub) Unsubscribe(sessionID string, sub Subscriber) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.subscribers[sessionID], sub)
	if len(that.subscribers[sessionID]) == 0 {
		delete(that.subscribers, sessionID)
	}
}

// Notify - delivers the session snapshot to all subscribers of the id.
func (that *Hub) Notify(sessionID string, session *entity.Session) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	subs := that.subscribers[sessionID]
	for sub := range subs {
		sub.SendSession(session)
	}

	that.logger.Debug("session update broadcast", "sessionID", sessionID, "subscribers", len(subs))
}
