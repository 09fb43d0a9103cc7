package sweeper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/trisgames/tris-backend/internal/entity"
)

type coordinator interface {
	ListInProgressSessions(ctx context.Context) ([]*entity.Session, error)
	CheckTimeout(ctx context.Context, sessionID string) (*entity.Session, error)
}

// Sweeper - periodic external caller of CheckTimeout. The core has no
// internal timer; this collaborator walks the in-progress sessions on a
// fixed interval and lets the coordinator decide per session.
type Sweeper struct {
	logger      *slog.Logger
	coordinator coordinator
	scheduler   gocron.Scheduler
	interval    time.Duration
}

func New(logger *slog.Logger, coordinator coordinator, interval time.Duration) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Sweeper{
		logger:      logger.With("component", "sweeper"),
		coordinator: coordinator,
		scheduler:   scheduler,
		interval:    interval,
	}, nil
}

// Start - schedules the sweep job and runs it until Stop.
func (that *Sweeper) Start(ctx context.Context) error {
	_, err := that.scheduler.NewJob(
		gocron.DurationJob(that.interval),
		gocron.NewTask(func() {
			that.sweep(ctx)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule timeout sweep: %w", err)
	}

	that.scheduler.Start()
	that.logger.Info("timeout sweeper started", "interval", that.interval)

	return nil
}

func (that *Sweeper) Stop() error {
	if err := that.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}

	return nil
}

func (that *Sweeper) sweep(ctx context.Context) {
	log := that.logger.With("method", "sweep")

	sessions, err := that.coordinator.ListInProgressSessions(ctx)
	if err != nil {
		log.Error("failed to list in-progress sessions", "error", err)
		return
	}

	for _, session := range sessions {
		if _, err = that.coordinator.CheckTimeout(ctx, session.ID); err != nil {
			log.Error("failed to check timeout", "sessionID", session.ID, "error", err)
		}
	}
}
