package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/italolelis/flood_bridge/internal/storage"
)

// GrabRepository stores grab records in SQLite.
type GrabRepository struct {
	db *sql.DB
}

var _ storage.GrabRepository = (*GrabRepository)(nil)

func NewGrabRepository(db *sql.DB) *GrabRepository {
	return &GrabRepository{db: db}
}

// TrackGrab records rec. Grabbing the same download id again refreshes the
// existing row.
func (r *GrabRepository) TrackGrab(ctx context.Context, rec storage.GrabRecord) error {
	if rec.GrabbedAt.IsZero() {
		rec.GrabbedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO grabs (download_id, client, kind, source, grabbed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(download_id) DO UPDATE SET
			client = excluded.client,
			kind = excluded.kind,
			source = excluded.source,
			grabbed_at = excluded.grabbed_at`,
		strings.ToLower(rec.DownloadID), rec.Client, rec.Kind, rec.Source, rec.GrabbedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to track grab: %w", err)
	}

	return nil
}

// GetGrabs returns every grab, newest first.
func (r *GrabRepository) GetGrabs(ctx context.Context) ([]storage.GrabRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT download_id, client, kind, source, grabbed_at FROM grabs ORDER BY grabbed_at DESC, download_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query grabs: %w", err)
	}
	defer rows.Close()

	grabs := []storage.GrabRecord{}

	for rows.Next() {
		var (
			rec       storage.GrabRecord
			source    sql.NullString
			grabbedAt string
		)

		if err := rows.Scan(&rec.DownloadID, &rec.Client, &rec.Kind, &source, &grabbedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grab: %w", err)
		}

		rec.Source = source.String

		rec.GrabbedAt, err = time.Parse(time.RFC3339, grabbedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse grab time %q: %w", grabbedAt, err)
		}

		grabs = append(grabs, rec)
	}

	return grabs, rows.Err()
}

// DeleteGrab removes the grab for downloadID.
func (r *GrabRepository) DeleteGrab(ctx context.Context, downloadID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grabs WHERE download_id = ?`, strings.ToLower(downloadID))
	if err != nil {
		return fmt.Errorf("failed to delete grab: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// DeleteGrabsOlderThan removes grabs recorded before cutoff and reports how
// many were removed.
func (r *GrabRepository) DeleteGrabsOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grabs WHERE grabbed_at < ?`, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("failed to prune grabs: %w", err)
	}

	return res.RowsAffected()
}
