package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no grab matches the given download id.
var ErrNotFound = errors.New("grab not found")

// GrabRecord is one item handed to the download client.
type GrabRecord struct {
	DownloadID string    `json:"downloadId"`
	Client     string    `json:"client"`
	Kind       string    `json:"kind"`
	Source     string    `json:"source"`
	GrabbedAt  time.Time `json:"grabbedAt"`
}

// Grab kinds.
const (
	KindMagnet      = "magnet"
	KindTorrentFile = "torrent_file"
)

type GrabReadRepository interface {
	GetGrabs(ctx context.Context) ([]GrabRecord, error)
}

type GrabWriteRepository interface {
	TrackGrab(ctx context.Context, rec GrabRecord) error
	DeleteGrab(ctx context.Context, downloadID string) error
	DeleteGrabsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type GrabRepository interface {
	GrabReadRepository
	GrabWriteRepository
}
