package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/italolelis/flood_bridge/internal/logctx"
)

// Pruner deletes grab history older than a cutoff.
type Pruner interface {
	DeleteGrabsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneHistory removes grab records older than retention.
func PruneHistory(ctx context.Context, repo Pruner, retention time.Duration) (int64, error) {
	logger := logctx.LoggerFromContext(ctx)

	cutoff := time.Now().Add(-retention)

	n, err := repo.DeleteGrabsOlderThan(ctx, cutoff)
	if err != nil {
		logger.ErrorContext(ctx, "failed to prune grab history", "err", err)

		return 0, err
	}

	if n > 0 {
		logger.InfoContext(ctx, "pruned grab history", "removed", n, "cutoff", cutoff.Format(time.RFC3339))
	}

	return n, nil
}

// Scheduler runs PruneHistory periodically.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler registers the prune job to run every interval, starting
// immediately.
func NewScheduler(ctx context.Context, repo Pruner, retention, interval time.Duration) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			_, _ = PruneHistory(ctx, repo, retention)
		}),
		gocron.WithName("prune-grab-history"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()

		return nil, fmt.Errorf("failed to register prune job: %w", err)
	}

	return &Scheduler{scheduler: s}, nil
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	s.scheduler.Start()

	<-ctx.Done()

	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	return nil
}
