package websocket

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/trisgames/tris-backend/internal/entity"
)

// client - one websocket connection. The mutex serializes writes: the read
// loop answers requests while the hub pushes broadcasts, and gorilla
// connections allow only one concurrent writer.
type client struct {
	logger *slog.Logger
	conn   *websocket.Conn

	mu sync.Mutex

	// session ids this connection subscribed to, touched only by the
	// connection's read loop
	sessions map[string]struct{}
}

func newClient(logger *slog.Logger, conn *websocket.Conn) *client {
	return &client{
		logger:   logger,
		conn:     conn,
		sessions: make(map[string]struct{}),
	}
}

func (that *client) send(response *Response) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.conn.WriteJSON(response); err != nil {
		that.logger.Error("failed to write response", "action", response.Action, "error", err)
	}
}

// SendSession - hub delivery path; pushes a session snapshot as an update.
func (that *client) SendSession(session *entity.Session) {
	that.send(&Response{
		Action:  actionUpdate,
		Success: true,
		Session: session,
	})
}
