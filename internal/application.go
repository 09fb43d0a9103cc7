package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trisgames/tris-backend/internal/broadcast"
	"github.com/trisgames/tris-backend/internal/config"
	"github.com/trisgames/tris-backend/internal/repository"
	"github.com/trisgames/tris-backend/internal/repository/storage"
	"github.com/trisgames/tris-backend/internal/sweeper"
	"github.com/trisgames/tris-backend/internal/usecase"
	"github.com/trisgames/tris-backend/transport/rest"
	"github.com/trisgames/tris-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	sessionRepo := repository.NewSessionRepository(redisStorage.Connection)
	hub := broadcast.NewHub(logger)
	coordinator := usecase.NewSessionCoordinator(logger, sessionRepo, hub)

	timeoutSweeper, err := sweeper.New(logger, coordinator, conf.SweepInterval)
	if err != nil {
		return fmt.Errorf("could not create timeout sweeper: %w", err)
	}

	if err = timeoutSweeper.Start(ctx); err != nil {
		return fmt.Errorf("could not start timeout sweeper: %w", err)
	}

	defer func() {
		if err = timeoutSweeper.Stop(); err != nil {
			log.Error("could not stop timeout sweeper", "error", err)
		}
	}()

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.Start(ctx, logger, conf.HTTPPort, coordinator); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, coordinator, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
