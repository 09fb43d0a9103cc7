package websocket

import (
	"encoding/json"

	"github.com/trisgames/tris-backend/internal/entity"
)

// Message represents a client message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinPayload struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
}

type TurnPayload struct {
	SessionID string `json:"session_id"`
	PlayerID  string `json:"player_id"`
	Position  int    `json:"position"`
}

type TimeoutPayload struct {
	SessionID string `json:"session_id"`
}

type StatePayload struct {
	SessionID string `json:"session_id"`
}

// Response - what goes back over the wire: either the updated session or
// a rejection reason, never both.
type Response struct {
	Action  string          `json:"action"`
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Session *entity.Session `json:"session,omitempty"`
}
