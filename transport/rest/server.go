package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func Start(ctx context.Context, logger *slog.Logger, port string, coordinator coordinator) error {
	h := newHandlers(logger.With("component", "rest"), coordinator)

	router := chi.NewRouter()
	router.Get("/ping", h.Ping)

	router.Route("/games", func(r chi.Router) {
		r.Post("/", h.CreateGame)
		r.Get("/", h.ListGames)
		r.Get("/{id}", h.GetGame)
		r.Post("/{id}/join", h.JoinGame)
	})

	router.Get("/players/{id}/games", h.PlayerHistory)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
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
