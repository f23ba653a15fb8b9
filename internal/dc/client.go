package dc

import (
	"context"
	"time"
)

// ClientInfo describes where a download client runs.
type ClientInfo struct {
	IsLocalhost bool `json:"isLocalhost"`
}

// ClientDescriptor identifies the client an item was reported by.
type ClientDescriptor struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DownloadItem is a download as the application sees it, whatever client
// reported it.
type DownloadItem struct {
	Client        ClientDescriptor `json:"client"`
	DownloadID    string           `json:"downloadId"`
	Title         string           `json:"title"`
	OutputPath    string           `json:"outputPath"`
	Category      string           `json:"category,omitempty"`
	TotalSize     int64            `json:"totalSize"`
	RemainingSize int64            `json:"remainingSize"`
	RemainingTime *time.Duration   `json:"remainingTime,omitempty"`
	SeedRatio     float64          `json:"seedRatio"`
	Status        DownloadState    `json:"status"`
	Message       string           `json:"message,omitempty"`
	CanBeRemoved  bool             `json:"canBeRemoved"`
	CanMoveFiles  bool             `json:"canMoveFiles"`
}

// ValidationFailure attributes a connection test failure to a settings field.
type ValidationFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// DownloadClient is the contract every download client integration implements.
// Add operations return the id the item will be reported under.
type DownloadClient interface {
	Name() string
	AddFromMagnetLink(ctx context.Context, hash, magnetLink string) (string, error)
	AddFromTorrentFile(ctx context.Context, hash, filename string, content []byte) (string, error)
	Items(ctx context.Context) ([]DownloadItem, error)
	RemoveItem(ctx context.Context, downloadID string, deleteData bool) error
	Status(ctx context.Context) ClientInfo
	Test(ctx context.Context) []ValidationFailure
}
