package entity

import "time"

// MoveRecord - one accepted move. Immutable once created; the move log of
// a session is append-only and ordered by creation time.
type MoveRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	Position  int       `json:"position"`
	Symbol    string    `json:"symbol"`
	CreatedAt time.Time `json:"created_at"`
}
