package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/italolelis/flood_bridge/internal/storage"
	"github.com/italolelis/flood_bridge/internal/telemetry"
)

// InstrumentedGrabRepository wraps GrabRepository with telemetry.
type InstrumentedGrabRepository struct {
	repo      *GrabRepository
	telemetry *telemetry.Telemetry
}

var _ storage.GrabRepository = (*InstrumentedGrabRepository)(nil)

// NewInstrumentedGrabRepository creates a new instrumented grab repository.
func NewInstrumentedGrabRepository(db *sql.DB, tel *telemetry.Telemetry) *InstrumentedGrabRepository {
	return &InstrumentedGrabRepository{
		repo:      NewGrabRepository(db),
		telemetry: tel,
	}
}

func (r *InstrumentedGrabRepository) TrackGrab(ctx context.Context, rec storage.GrabRecord) error {
	return r.telemetry.InstrumentDBOperation(ctx, "track_grab", func(ctx context.Context) error {
		return r.repo.TrackGrab(ctx, rec)
	})
}

func (r *InstrumentedGrabRepository) GetGrabs(ctx context.Context) ([]storage.GrabRecord, error) {
	var result []storage.GrabRecord

	err := r.telemetry.InstrumentDBOperation(ctx, "get_grabs", func(ctx context.Context) error {
		var err error
		result, err = r.repo.GetGrabs(ctx)

		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *InstrumentedGrabRepository) DeleteGrab(ctx context.Context, downloadID string) error {
	return r.telemetry.InstrumentDBOperation(ctx, "delete_grab", func(ctx context.Context) error {
		return r.repo.DeleteGrab(ctx, downloadID)
	})
}

func (r *InstrumentedGrabRepository) DeleteGrabsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64

	err := r.telemetry.InstrumentDBOperation(ctx, "delete_grabs_older_than", func(ctx context.Context) error {
		var err error
		n, err = r.repo.DeleteGrabsOlderThan(ctx, cutoff)

		return err
	})

	return n, err
}
