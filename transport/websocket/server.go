package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/trisgames/tris-backend/internal/broadcast"
	"github.com/trisgames/tris-backend/internal/entity"
)

const (
	actionJoin    = "game:join"
	actionTurn    = "game:turn"
	actionTimeout = "game:timeout"
	actionState   = "game:state"
	actionUpdate  = "game:update"
)

type coordinator interface {
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
	JoinSession(ctx context.Context, sessionID, playerID string) (*entity.Session, error)
	MakeMove(ctx context.Context, sessionID, playerID string, position int) (*entity.Session, error)
	CheckTimeout(ctx context.Context, sessionID string) (*entity.Session, error)
}

type hub interface {
	Subscribe(sessionID string, sub broadcast.Subscriber)
	Unsubscribe(sessionID string, sub broadcast.Subscriber)
}

type Server struct {
	logger      *slog.Logger
	coordinator coordinator
	hub         hub
	upgrader    websocket.Upgrader

	handlers map[string]func(ctx context.Context, cl *client, msg *Message)
}

func New(logger *slog.Logger, coordinator coordinator, hub hub) *Server {
	server := &Server{
		logger:      logger.With("component", "websocket"),
		coordinator: coordinator,
		hub:         hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},

		handlers: make(map[string]func(context.Context, *client, *Message)),
	}

	server.handlers[actionJoin] = server.handleJoin
	server.handlers[actionTurn] = server.handleTurn
	server.handlers[actionTimeout] = server.handleTimeout
	server.handlers[actionState] = server.handleState

	return server
}

// Start - starts the WebSocket server and shuts it down when ctx ends.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	cl := newClient(that.logger, conn)

	defer func() {
		for sessionID := range cl.sessions {
			that.hub.Unsubscribe(sessionID, cl)
		}
		_ = conn.Close()
	}()

	log.Info("connection established", "remote", conn.RemoteAddr().String())

	that.readLoop(ctx, cl)
}

// readLoop - processes messages from the client until the connection
// drops or the server context ends.
func (that *Server) readLoop(ctx context.Context, cl *client) {
	log := that.logger.With("method", "readLoop")

	for {
		if ctx.Err() != nil {
			return
		}

		var message Message
		if err := cl.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("connection closed unexpectedly", "error", err)
			}
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			cl.send(&Response{Action: message.Action, Message: "unknown action"})
			continue
		}

		handler(ctx, cl, &message)
	}
}
