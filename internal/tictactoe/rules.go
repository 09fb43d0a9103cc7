package tictactoe

import (
	"fmt"
	"time"

	"github.com/trisgames/tris-backend/internal/apperror"
	"github.com/trisgames/tris-backend/internal/entity"
)

// MoveTimeout - how long the player on turn may think before forfeiting.
const MoveTimeout = 30 * time.Second

// Join - seats a player in the session.
//
// The first joiner takes slot 1 ("X") and the session keeps waiting. A
// second distinct joiner takes slot 2 ("O") and starts the game. A third
// or repeated joiner is silently ignored: the session is returned
// unchanged and no error is raised, so a client re-sending its join is
// harmless.
//
// Returns true when the session actually changed.
func Join(session *entity.Session, playerID string, now time.Time) (bool, error) {
	if session.IsTerminal() {
		return false, fmt.Errorf("%w: session %s is %s", apperror.ErrSessionNotJoinable, session.ID, session.Status)
	}

	switch {
	case session.Player1ID == "":
		session.Player1ID = playerID
	case session.Player2ID == "" && session.Player1ID != playerID:
		session.Player2ID = playerID
		session.Status = entity.StatusInProgress
		session.Turn = entity.SymbolX
		session.LastMoveAt = now
	default:
		return false, nil
	}

	session.UpdatedAt = now

	return true, nil
}

// ApplyMove - validates and applies one move for the player, returning the
// appended move record. On any validation failure the session is left
// untouched.
func ApplyMove(session *entity.Session, playerID string, position int, now time.Time) (*entity.MoveRecord, error) {
	if !session.IsInProgress() {
		return nil, fmt.Errorf("%w: session %s is %s", apperror.ErrSessionNotInProgress, session.ID, session.Status)
	}

	symbol := session.SymbolOf(playerID)
	if symbol == "" || symbol != session.Turn {
		return nil, apperror.ErrNotYourTurn
	}

	if position < 0 || position >= entity.BoardSize {
		return nil, fmt.Errorf("%w: position %d out of range", apperror.ErrInvalidMove, position)
	}

	if session.Board[position] != entity.EmptyCell {
		return nil, fmt.Errorf("%w: cell %d is occupied", apperror.ErrInvalidMove, position)
	}

	session.Board[position] = symbol

	record := &entity.MoveRecord{
		SessionID: session.ID,
		PlayerID:  playerID,
		Position:  position,
		Symbol:    symbol,
		CreatedAt: now,
	}
	session.Moves = append(session.Moves, record)

	// The turn flips even on the game-ending move; the terminal status
	// makes the stale turn value unreachable.
	session.Turn = toggleSymbol(symbol)
	session.LastMoveAt = now
	session.UpdatedAt = now

	switch outcome := Evaluate(session.Board); {
	case outcome.Winner != "":
		session.Status = entity.StatusCompleted
		session.WinnerID = session.PlayerOf(outcome.Winner)
	case outcome.Draw:
		session.Status = entity.StatusDraw
	}

	return record, nil
}

// CheckTimeout - forfeits the player on turn when the session sat idle
// longer than MoveTimeout. Sessions that are not in progress are left
// alone, which makes repeated checks after a forfeiture no-ops.
//
// Returns true when the session changed.
func CheckTimeout(session *entity.Session, now time.Time) bool {
	if !session.IsInProgress() {
		return false
	}

	if now.Sub(session.LastMoveAt) <= MoveTimeout {
		return false
	}

	session.Status = entity.StatusCompleted
	session.WinnerID = session.PlayerOf(toggleSymbol(session.Turn))
	session.UpdatedAt = now

	return true
}

func toggleSymbol(symbol string) string {
	if symbol == entity.SymbolX {
		return entity.SymbolO
	}

	return entity.SymbolX
}
