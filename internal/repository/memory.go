package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/trisgames/tris-backend/internal/apperror"
	"github.com/trisgames/tris-backend/internal/entity"
)

// memorySession - in-memory SessionRepository. Backs deterministic tests
// and local runs without redis; same contract as the redis implementation.
type memorySession struct {
	mu       sync.RWMutex
	sessions map[string]*entity.Session
	moves    map[string][]*entity.MoveRecord
}

func NewMemorySessionRepository() SessionRepository {
	return &memorySession{
		sessions: make(map[string]*entity.Session),
		moves:    make(map[string][]*entity.MoveRecord),
	}
}

func (that *memorySession) Save(_ context.Context, session *entity.Session) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sessions[session.ID] = copySession(session)

	return nil
}

func (that *memorySession) GetByID(_ context.Context, id string) (*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[id]
	if !ok {
		return nil, apperror.ErrSessionNotFound
	}

	out := copySession(session)
	for _, record := range that.moves[id] {
		recordCopy := *record
		out.Moves = append(out.Moves, &recordCopy)
	}

	return out, nil
}

func (that *memorySession) AppendMove(_ context.Context, sessionID string, record *entity.MoveRecord) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	recordCopy := *record
	that.moves[sessionID] = append(that.moves[sessionID], &recordCopy)

	return nil
}

func (that *memorySession) ListByStatus(_ context.Context, status string) ([]*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var sessions []*entity.Session
	for _, session := range that.sessions {
		if session.Status == status {
			sessions = append(sessions, copySession(session))
		}
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

func (that *memorySession) ListFinishedByPlayer(_ context.Context, playerID string) ([]*entity.Session, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	var sessions []*entity.Session
	for _, session := range that.sessions {
		if !session.IsTerminal() {
			continue
		}
		if session.Player1ID != playerID && session.Player2ID != playerID {
			continue
		}
		sessions = append(sessions, copySession(session))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	if len(sessions) > HistoryLimit {
		sessions = sessions[:HistoryLimit]
	}

	return sessions, nil
}

// Copies isolate stored state from callers; a caller mutating a returned
// session must go through Save to make it visible.
func copySession(session *entity.Session) *entity.Session {
	out := *session
	out.Moves = nil

	return &out
}
