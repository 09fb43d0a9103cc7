package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trisgames/tris-backend/internal/apperror"
	"github.com/trisgames/tris-backend/internal/entity"
	"github.com/trisgames/tris-backend/internal/repository"
)

// recordingNotifier - captures every notification the coordinator emits.
type recordingNotifier struct {
	mu            sync.Mutex
	notifications []*entity.Session
}

func (that *recordingNotifier) Notify(_ string, session *entity.Session) {
	that.mu.Lock()
	defer that.mu.Unlock()

	snapshot := *session
	that.notifications = append(that.notifications, &snapshot)
}

func (that *recordingNotifier) count() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.notifications)
}

func newTestCoordinator(t *testing.T) (*SessionCoordinator, *recordingNotifier) {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	notifier := &recordingNotifier{}

	return NewSessionCoordinator(logger, repository.NewMemorySessionRepository(), notifier), notifier
}

func TestSessionCoordinator_CreateSession(t *testing.T) {
	ctx := context.Background()
	coordinator, notifier := newTestCoordinator(t)

	// When: a session is created
	session, err := coordinator.CreateSession(ctx)

	// Then: it is persisted empty and waiting, with nobody to notify yet
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, entity.StatusWaiting, session.Status)

	loaded, err := coordinator.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	assert.Zero(t, notifier.count())
}

func TestSessionCoordinator_JoinSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Two joins start the game and emit one notification each", func(t *testing.T) {
		coordinator, notifier := newTestCoordinator(t)
		session, err := coordinator.CreateSession(ctx)
		require.NoError(t, err)

		// When: alice and then bob join
		afterAlice, err := coordinator.JoinSession(ctx, session.ID, "alice")
		require.NoError(t, err)
		afterBob, err := coordinator.JoinSession(ctx, session.ID, "bob")
		require.NoError(t, err)

		// Then: the game is running and both mutations were announced
		assert.Equal(t, entity.StatusWaiting, afterAlice.Status)
		assert.Equal(t, "alice", afterAlice.Player1ID)
		assert.Equal(t, entity.StatusInProgress, afterBob.Status)
		assert.Equal(t, "bob", afterBob.Player2ID)
		assert.Equal(t, entity.SymbolX, afterBob.Turn)
		assert.Equal(t, 2, notifier.count())
	})

	t.Run("A no-op join is neither persisted nor announced", func(t *testing.T) {
		coordinator, notifier := newTestCoordinator(t)
		session, err := coordinator.CreateSession(ctx)
		require.NoError(t, err)

		_, err = coordinator.JoinSession(ctx, session.ID, "alice")
		require.NoError(t, err)
		_, err = coordinator.JoinSession(ctx, session.ID, "bob")
		require.NoError(t, err)

		// When: carol tries to join the full game
		result, err := coordinator.JoinSession(ctx, session.ID, "carol")

		// Then: the session is returned unchanged, nothing new announced
		require.NoError(t, err)
		assert.Equal(t, "alice", result.Player1ID)
		assert.Equal(t, "bob", result.Player2ID)
		assert.Equal(t, 2, notifier.count())
	})

	t.Run("Joining an unknown session fails with not found", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)

		_, err := coordinator.JoinSession(ctx, "no-such-id", "alice")

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Concurrent joins seat exactly two distinct players", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		session, err := coordinator.CreateSession(ctx)
		require.NoError(t, err)

		// When: ten players race to join the same session
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, joinErr := coordinator.JoinSession(ctx, session.ID, fmt.Sprintf("player-%d", n))
				assert.NoError(t, joinErr)
			}(i)
		}
		wg.Wait()

		// Then: two distinct players are seated and the game is running
		result, err := coordinator.GetSession(ctx, session.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, result.Player1ID)
		assert.NotEmpty(t, result.Player2ID)
		assert.NotEqual(t, result.Player1ID, result.Player2ID)
		assert.Equal(t, entity.StatusInProgress, result.Status)
	})
}

func TestSessionCoordinator_MakeMove(t *testing.T) {
	ctx := context.Background()

	startGame := func(t *testing.T, coordinator *SessionCoordinator) *entity.Session {
		t.Helper()

		session, err := coordinator.CreateSession(ctx)
		require.NoError(t, err)
		_, err = coordinator.JoinSession(ctx, session.ID, "alice")
		require.NoError(t, err)
		started, err := coordinator.JoinSession(ctx, session.ID, "bob")
		require.NoError(t, err)

		return started
	}

	t.Run("A move is persisted with its record and announced", func(t *testing.T) {
		coordinator, notifier := newTestCoordinator(t)
		session := startGame(t, coordinator)

		// When: alice plays cell 0
		result, err := coordinator.MakeMove(ctx, session.ID, "alice", 0)

		// Then: board and turn update, the move log grows, one notification
		require.NoError(t, err)
		assert.Equal(t, entity.SymbolX, result.Board[0])
		assert.Equal(t, entity.SymbolO, result.Turn)

		loaded, err := coordinator.GetSession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Moves, 1)
		assert.Equal(t, "alice", loaded.Moves[0].PlayerID)
		assert.NotEmpty(t, loaded.Moves[0].ID)
		assert.Equal(t, 3, notifier.count())
	})

	t.Run("A rejected move changes nothing and is not announced", func(t *testing.T) {
		coordinator, notifier := newTestCoordinator(t)
		session := startGame(t, coordinator)
		before := notifier.count()

		// When: bob moves out of turn
		_, err := coordinator.MakeMove(ctx, session.ID, "bob", 0)

		// Then: the rejection reaches the caller only
		require.ErrorIs(t, err, apperror.ErrNotYourTurn)

		loaded, loadErr := coordinator.GetSession(ctx, session.ID)
		require.NoError(t, loadErr)
		assert.Equal(t, entity.EmptyCell, loaded.Board[0])
		assert.Empty(t, loaded.Moves)
		assert.Equal(t, before, notifier.count())
	})

	t.Run("The winning move completes the game", func(t *testing.T) {
		coordinator, _ := newTestCoordinator(t)
		session := startGame(t, coordinator)

		for _, move := range []struct {
			player string
			cell   int
		}{
			{"alice", 0}, {"bob", 3}, {"alice", 1}, {"bob", 4},
		} {
			_, err := coordinator.MakeMove(ctx, session.ID, move.player, move.cell)
			require.NoError(t, err)
		}

		// When: alice completes the top row
		result, err := coordinator.MakeMove(ctx, session.ID, "alice", 2)

		// Then: alice wins and the history records the game for both players
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, result.Status)
		assert.Equal(t, "alice", result.WinnerID)

		for _, playerID := range []string{"alice", "bob"} {
			history, historyErr := coordinator.PlayerHistory(ctx, playerID)
			require.NoError(t, historyErr)
			require.Len(t, history, 1)
			assert.Equal(t, session.ID, history[0].ID)
		}
	})
}

func TestSessionCoordinator_CheckTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("A missing session is not an error", func(t *testing.T) {
		coordinator, notifier := newTestCoordinator(t)

		session, err := coordinator.CheckTimeout(ctx, "no-such-id")

		require.NoError(t, err)
		assert.Nil(t, session)
		assert.Zero(t, notifier.count())
	})

	t.Run("An overdue game forfeits the player on turn", func(t *testing.T) {
		// Given: a running game whose last move is 31 seconds old
		repo := repository.NewMemorySessionRepository()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		notifier := &recordingNotifier{}
		coordinator := NewSessionCoordinator(logger, repo, notifier)

		stale := entity.NewSession("stale-game", time.Now().UTC().Add(-time.Minute))
		stale.Player1ID = "alice"
		stale.Player2ID = "bob"
		stale.Status = entity.StatusInProgress
		stale.LastMoveAt = time.Now().UTC().Add(-31 * time.Second)
		require.NoError(t, repo.Save(ctx, stale))

		// When: the timeout is checked
		result, err := coordinator.CheckTimeout(ctx, stale.ID)

		// Then: "X" was on turn, so bob wins, and the change is announced
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, result.Status)
		assert.Equal(t, "bob", result.WinnerID)
		assert.Equal(t, 1, notifier.count())

		// When: the timeout is checked again
		again, err := coordinator.CheckTimeout(ctx, stale.ID)

		// Then: the terminal state is untouched, no second notification
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, again.Status)
		assert.Equal(t, 1, notifier.count())
	})

	t.Run("A fresh game is left alone", func(t *testing.T) {
		coordinator, notifier := newTestCoordinator(t)
		session, err := coordinator.CreateSession(ctx)
		require.NoError(t, err)
		_, err = coordinator.JoinSession(ctx, session.ID, "alice")
		require.NoError(t, err)
		_, err = coordinator.JoinSession(ctx, session.ID, "bob")
		require.NoError(t, err)
		before := notifier.count()

		// When: the timeout is checked right after the game started
		result, err := coordinator.CheckTimeout(ctx, session.ID)

		// Then: nothing changes
		require.NoError(t, err)
		assert.Equal(t, entity.StatusInProgress, result.Status)
		assert.Equal(t, before, notifier.count())
	})
}

func TestSessionCoordinator_Listing(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator(t)

	// Given: one waiting and one running session
	waiting, err := coordinator.CreateSession(ctx)
	require.NoError(t, err)

	running, err := coordinator.CreateSession(ctx)
	require.NoError(t, err)
	_, err = coordinator.JoinSession(ctx, running.ID, "alice")
	require.NoError(t, err)
	_, err = coordinator.JoinSession(ctx, running.ID, "bob")
	require.NoError(t, err)

	// When: the status lists are fetched
	waitingList, err := coordinator.ListWaitingSessions(ctx)
	require.NoError(t, err)
	inProgressList, err := coordinator.ListInProgressSessions(ctx)
	require.NoError(t, err)

	// Then: each session shows up under its own status only
	require.Len(t, waitingList, 1)
	assert.Equal(t, waiting.ID, waitingList[0].ID)
	require.Len(t, inProgressList, 1)
	assert.Equal(t, running.ID, inProgressList[0].ID)
}
