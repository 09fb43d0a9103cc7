package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/trisgames/tris-backend/internal/apperror"
	"github.com/trisgames/tris-backend/internal/entity"
)

// HistoryLimit - how many finished sessions are returned per player.
const HistoryLimit = 10

type SessionRepository interface {
	Save(ctx context.Context, session *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	AppendMove(ctx context.Context, sessionID string, record *entity.MoveRecord) error

	ListByStatus(ctx context.Context, status string) ([]*entity.Session, error)
	ListFinishedByPlayer(ctx context.Context, playerID string) ([]*entity.Session, error)
}

type dbSession struct {
	client *redis.Client
}

func NewSessionRepository(client *redis.Client) SessionRepository {
	return &dbSession{
		client: client,
	}
}

func sessionKey(id string) string { return "session:" + id }

func movesKey(sessionID string) string { return "session:" + sessionID + ":moves" }

func statusKey(status string) string { return "sessions:status:" + status }

func historyKey(playerID string) string { return "player:" + playerID + ":finished" }

var allStatuses = []string{
	entity.StatusWaiting,
	entity.StatusInProgress,
	entity.StatusCompleted,
	entity.StatusDraw,
}

// Save - writes the session blob and keeps the status and per-player
// history indexes in step with it. The move log is persisted separately
// through AppendMove, so it is stripped from the blob here.
func (that *dbSession) Save(ctx context.Context, session *entity.Session) error {
	blob := *session
	blob.Moves = nil

	sessionJSON, err := json.Marshal(&blob)
	if err != nil {
		return fmt.Errorf("could not marshal session: %w", err)
	}

	pipe := that.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), sessionJSON, 0)

	for _, status := range allStatuses {
		if status == session.Status {
			continue
		}
		pipe.ZRem(ctx, statusKey(status), session.ID)
	}
	pipe.ZAdd(ctx, statusKey(session.Status), redis.Z{
		Score:  float64(session.CreatedAt.UnixNano()),
		Member: session.ID,
	})

	if session.IsTerminal() {
		score := float64(session.UpdatedAt.UnixNano())
		for _, playerID := range []string{session.Player1ID, session.Player2ID} {
			if playerID == "" {
				continue
			}
			pipe.ZAdd(ctx, historyKey(playerID), redis.Z{Score: score, Member: session.ID})
		}
	}

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (that *dbSession) GetByID(ctx context.Context, id string) (*entity.Session, error) {
	response, err := that.client.Get(ctx, sessionKey(id)).Result()

	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrSessionNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}

	var session entity.Session
	if err = json.Unmarshal([]byte(response), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	rawMoves, err := that.client.LRange(ctx, movesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get move log: %w", err)
	}

	for _, raw := range rawMoves {
		var record entity.MoveRecord
		if err = json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move record: %w", err)
		}
		session.Moves = append(session.Moves, &record)
	}

	return &session, nil
}

func (that *dbSession) AppendMove(ctx context.Context, sessionID string, record *entity.MoveRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal move record: %w", err)
	}

	if err = that.client.RPush(ctx, movesKey(sessionID), recordJSON).Err(); err != nil {
		return fmt.Errorf("failed to append move record: %w", err)
	}

	return nil
}

// ListByStatus - sessions in the given status, newest-created first.
func (that *dbSession) ListByStatus(ctx context.Context, status string) ([]*entity.Session, error) {
	ids, err := that.client.ZRevRange(ctx, statusKey(status), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions by status: %w", err)
	}

	return that.loadAll(ctx, ids)
}

// ListFinishedByPlayer - completed or drawn sessions the player took part
// in, newest-updated first, capped at HistoryLimit.
func (that *dbSession) ListFinishedByPlayer(ctx context.Context, playerID string) ([]*entity.Session, error) {
	ids, err := that.client.ZRevRange(ctx, historyKey(playerID), 0, HistoryLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list finished sessions: %w", err)
	}

	return that.loadAll(ctx, ids)
}

func (that *dbSession) loadAll(ctx context.Context, ids []string) ([]*entity.Session, error) {
	sessions := make([]*entity.Session, 0, len(ids))

	for _, id := range ids {
		session, err := that.GetByID(ctx, id)
		if errors.Is(err, apperror.ErrSessionNotFound) {
			// index entry outlived the blob, skip it
			continue
		}
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}
