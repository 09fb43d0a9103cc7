package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trisgames/tris-backend/internal/apperror"
	"github.com/trisgames/tris-backend/internal/entity"
	"github.com/trisgames/tris-backend/internal/pkg"
	"github.com/trisgames/tris-backend/internal/tictactoe"
)

type sessionRepo interface {
	Save(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	AppendMove(ctx context.Context, sessionID string, record *entity.MoveRecord) error

	ListByStatus(ctx context.Context, status string) ([]*entity.Session, error)
	ListFinishedByPlayer(ctx context.Context, playerID string) ([]*entity.Session, error)
}

type notifier interface {
	Notify(sessionID string, session *entity.Session)
}

// SessionCoordinator - serializes all mutations against a session id and
// pushes every state change to the notifier.
//
// The per-id mutex is the source of mutation ordering: Join, MakeMove and
// CheckTimeout all read-then-write the session, so storage-level atomicity
// alone would still lose updates. Mutations on different session ids run
// in parallel; each operation touches exactly one id, so there is no lock
// ordering to get wrong.
type SessionCoordinator struct {
	logger   *slog.Logger
	sessions sessionRepo
	notifier notifier

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionCoordinator(logger *slog.Logger, sessions sessionRepo, notifier notifier) *SessionCoordinator {
	return &SessionCoordinator{
		logger:   logger.With("component", "coordinator"),
		sessions: sessions,
		notifier: notifier,

		locks: make(map[string]*sync.Mutex),
	}
}

// lockSession - acquires the mutation lock for one session id and returns
// the release func. Locks live for the process lifetime; a finished game
// costs one idle mutex, which is cheaper than getting lock handoff wrong.
func (that *SessionCoordinator) lockSession(id string) func() {
	that.mu.Lock()
	lock, ok := that.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[id] = lock
	}
	that.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}

// CreateSession - creates an empty waiting session: no players, empty
// board, "X" to move once the game starts.
func (that *SessionCoordinator) CreateSession(ctx context.Context) (*entity.Session, error) {
	session := entity.NewSession(pkg.GenerateSessionID(), time.Now().UTC())

	if err := that.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	that.logger.Info("session created", "sessionID", session.ID)

	return session, nil
}

func (that *SessionCoordinator) GetSession(ctx context.Context, sessionID string) (*entity.Session, error) {
	session, err := that.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	return session, nil
}

// JoinSession - seats the player under the session lock. A join that does
// not change the session (duplicate or third joiner) is neither persisted
// nor announced.
func (that *SessionCoordinator) JoinSession(ctx context.Context, sessionID, playerID string) (*entity.Session, error) {
	unlock := that.lockSession(sessionID)
	defer unlock()

	session, err := that.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	changed, err := tictactoe.Join(session, playerID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to join session: %w", err)
	}

	if !changed {
		return session, nil
	}

	if err = that.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	that.logger.Info("player joined", "sessionID", session.ID, "playerID", playerID, "status", session.Status)
	that.notifier.Notify(session.ID, session)

	return session, nil
}

// MakeMove - applies one move under the session lock, persisting the move
// record and the updated session, then announces the new state.
func (that *SessionCoordinator) MakeMove(ctx context.Context, sessionID, playerID string, position int) (*entity.Session, error) {
	unlock := that.lockSession(sessionID)
	defer unlock()

	session, err := that.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	record, err := tictactoe.ApplyMove(session, playerID, position, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	record.ID = pkg.GenerateMoveID()

	if err = that.sessions.AppendMove(ctx, session.ID, record); err != nil {
		return nil, fmt.Errorf("failed to append move record: %w", err)
	}

	if err = that.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	that.logger.Info("move applied",
		"sessionID", session.ID, "playerID", playerID, "position", position, "status", session.Status)
	that.notifier.Notify(session.ID, session)

	return session, nil
}

// CheckTimeout - forfeits the idle player on turn if the move timeout has
// elapsed. A missing session is not an error: the check is fired by
// external callers on whatever ids they hold, so it has to be harmless.
func (that *SessionCoordinator) CheckTimeout(ctx context.Context, sessionID string) (*entity.Session, error) {
	unlock := that.lockSession(sessionID)
	defer unlock()

	session, err := that.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, apperror.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	if !tictactoe.CheckTimeout(session, time.Now().UTC()) {
		return session, nil
	}

	if err = that.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	that.logger.Info("session forfeited on timeout", "sessionID", session.ID, "winnerID", session.WinnerID)
	that.notifier.Notify(session.ID, session)

	return session, nil
}

// ListWaitingSessions - open sessions a player could join, newest first.
func (that *SessionCoordinator) ListWaitingSessions(ctx context.Context) ([]*entity.Session, error) {
	sessions, err := that.sessions.ListByStatus(ctx, entity.StatusWaiting)
	if err != nil {
		return nil, fmt.Errorf("failed to list waiting sessions: %w", err)
	}

	return sessions, nil
}

// ListInProgressSessions - sessions eligible for a timeout check.
func (that *SessionCoordinator) ListInProgressSessions(ctx context.Context) ([]*entity.Session, error) {
	sessions, err := that.sessions.ListByStatus(ctx, entity.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-progress sessions: %w", err)
	}

	return sessions, nil
}

// PlayerHistory - the player's finished games, newest first, capped by the
// repository.
func (that *SessionCoordinator) PlayerHistory(ctx context.Context, playerID string) ([]*entity.Session, error) {
	sessions, err := that.sessions.ListFinishedByPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list finished sessions: %w", err)
	}

	return sessions, nil
}
