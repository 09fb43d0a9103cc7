package websocket

import (
	"context"
	"encoding/json"
)

// handleJoin - subscribes the connection to the session's updates and
// seats the player. Subscribing happens before the join so the caller
// never misses the update its own join produces.
func (that *Server) handleJoin(ctx context.Context, cl *client, msg *Message) {
	var payload JoinPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cl.send(&Response{Action: msg.Action, Message: "malformed payload"})
		return
	}

	if _, subscribed := cl.sessions[payload.SessionID]; !subscribed {
		that.hub.Subscribe(payload.SessionID, cl)
		cl.sessions[payload.SessionID] = struct{}{}
	}

	session, err := that.coordinator.JoinSession(ctx, payload.SessionID, payload.PlayerID)
	if err != nil {
		cl.send(&Response{Action: msg.Action, Message: reason(err)})
		return
	}

	cl.send(&Response{Action: msg.Action, Success: true, Session: session})
}

func (that *Server) handleTurn(ctx context.Context, cl *client, msg *Message) {
	var payload TurnPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cl.send(&Response{Action: msg.Action, Message: "malformed payload"})
		return
	}

	session, err := that.coordinator.MakeMove(ctx, payload.SessionID, payload.PlayerID, payload.Position)
	if err != nil {
		cl.send(&Response{Action: msg.Action, Message: reason(err)})
		return
	}

	cl.send(&Response{Action: msg.Action, Success: true, Session: session})
}

func (that *Server) handleTimeout(ctx context.Context, cl *client, msg *Message) {
	var payload TimeoutPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cl.send(&Response{Action: msg.Action, Message: "malformed payload"})
		return
	}

	session, err := that.coordinator.CheckTimeout(ctx, payload.SessionID)
	if err != nil {
		cl.send(&Response{Action: msg.Action, Message: reason(err)})
		return
	}

	cl.send(&Response{Action: msg.Action, Success: true, Session: session})
}

func (that *Server) handleState(ctx context.Context, cl *client, msg *Message) {
	var payload StatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cl.send(&Response{Action: msg.Action, Message: "malformed payload"})
		return
	}

	session, err := that.coordinator.GetSession(ctx, payload.SessionID)
	if err != nil {
		cl.send(&Response{Action: msg.Action, Message: reason(err)})
		return
	}

	cl.send(&Response{Action: msg.Action, Success: true, Session: session})
}

// reason - the human-readable rejection string sent to the caller.
func reason(err error) string {
	return err.Error()
}
