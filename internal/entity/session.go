package entity

import "time"

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusDraw       = "draw"

	SymbolX = "X"
	SymbolO = "O"

	EmptyCell = ""

	BoardSize = 9
)

// Session - one game's full state: players, board, status, turn and timestamps.
type Session struct {
	ID         string            `json:"id"`
	Player1ID  string            `json:"player1_id,omitempty"`
	Player2ID  string            `json:"player2_id,omitempty"`
	Status     string            `json:"status"`
	WinnerID   string            `json:"winner_id,omitempty"`
	Turn       string            `json:"current_turn"`
	Board      [BoardSize]string `json:"board"`
	Moves      []*MoveRecord     `json:"moves,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	LastMoveAt time.Time         `json:"last_move_at"`
}

func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Status:    StatusWaiting,
		Turn:      SymbolX,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (that *Session) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Session) IsInProgress() bool {
	return that.Status == StatusInProgress
}

// IsTerminal reports whether the session reached a final state.
// Completed and draw sessions never transition again.
func (that *Session) IsTerminal() bool {
	return that.Status == StatusCompleted || that.Status == StatusDraw
}

// SymbolOf - returns the symbol bound to the player, or an empty string
// for players that are not seated in this session. Slot 1 is always "X",
// slot 2 is always "O".
func (that *Session) SymbolOf(playerID string) string {
	switch playerID {
	case "":
		return ""
	case that.Player1ID:
		return SymbolX
	case that.Player2ID:
		return SymbolO
	default:
		return ""
	}
}

// PlayerOf - inverse of SymbolOf.
func (that *Session) PlayerOf(symbol string) string {
	switch symbol {
	case SymbolX:
		return that.Player1ID
	case SymbolO:
		return that.Player2ID
	default:
		return ""
	}
}
