package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/trisgames/tris-backend/internal/apperror"
	"github.com/trisgames/tris-backend/internal/entity"
)

type coordinator interface {
	CreateSession(ctx context.Context) (*entity.Session, error)
	GetSession(ctx context.Context, sessionID string) (*entity.Session, error)
	JoinSession(ctx context.Context, sessionID, playerID string) (*entity.Session, error)
	ListWaitingSessions(ctx context.Context) ([]*entity.Session, error)
	PlayerHistory(ctx context.Context, playerID string) ([]*entity.Session, error)
}

type handlers struct {
	logger      *slog.Logger
	coordinator coordinator
}

func newHandlers(logger *slog.Logger, coordinator coordinator) *handlers {
	return &handlers{
		logger:      logger,
		coordinator: coordinator,
	}
}

func (that *handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// CreateGame - POST /games: a new empty session in waiting status.
func (that *handlers) CreateGame(w http.ResponseWriter, r *http.Request) {
	session, err := that.coordinator.CreateSession(r.Context())
	if err != nil {
		that.respondError(w, err)
		return
	}

	that.respondJSON(w, http.StatusCreated, session)
}

// ListGames - GET /games: sessions still waiting for players, newest
// first.
func (that *handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	sessions, err := that.coordinator.ListWaitingSessions(r.Context())
	if err != nil {
		that.respondError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, sessions)
}

// GetGame - GET /games/{id}: one session with its move log.
func (that *handlers) GetGame(w http.ResponseWriter, r *http.Request) {
	session, err := that.coordinator.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.respondError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, session)
}

// JoinGame - POST /games/{id}/join with {"player_id": "..."}.
func (that *handlers) JoinGame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PlayerID string `json:"player_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PlayerID == "" {
		http.Error(w, "player_id is required", http.StatusBadRequest)
		return
	}

	session, err := that.coordinator.JoinSession(r.Context(), chi.URLParam(r, "id"), body.PlayerID)
	if err != nil {
		that.respondError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, session)
}

// PlayerHistory - GET /players/{id}/games: the player's finished games,
// newest first, capped at ten.
func (that *handlers) PlayerHistory(w http.ResponseWriter, r *http.Request) {
	sessions, err := that.coordinator.PlayerHistory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.respondError(w, err)
		return
	}

	that.respondJSON(w, http.StatusOK, sessions)
}

func (that *handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *handlers) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrSessionNotJoinable),
		errors.Is(err, apperror.ErrSessionNotInProgress),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrInvalidMove):
		status = http.StatusBadRequest
	default:
		that.logger.Error("request failed", "error", err)
	}

	that.respondJSON(w, status, map[string]string{"error": err.Error()})
}
