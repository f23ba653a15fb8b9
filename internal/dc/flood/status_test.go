package flood

import (
	"testing"

	"github.com/italolelis/flood_bridge/internal/dc"
	"github.com/stretchr/testify/assert"
)

func TestMapStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     dc.DownloadState
	}{
		{"seeding", []string{"seeding"}, dc.StateCompleted},
		{"complete", []string{"complete", "inactive"}, dc.StateCompleted},
		{"downloading", []string{"downloading"}, dc.StateDownloading},
		{"stopped", []string{"stopped"}, dc.StatePaused},
		{"empty", []string{}, dc.StateQueued},
		{"nil", nil, dc.StateQueued},
		{"unknown", []string{"checking", "inactive"}, dc.StateQueued},
		{"case insensitive", []string{"Downloading"}, dc.StateDownloading},
		{"substring", []string{"downloading-actively"}, dc.StateDownloading},
		{"error beats seeding", []string{"seeding", "error"}, dc.StateWarning},
		{"error beats downloading", []string{"downloading", "error"}, dc.StateWarning},
		{"complete beats stopped", []string{"stopped", "complete"}, dc.StateCompleted},
		{"downloading beats stopped", []string{"stopped", "downloading"}, dc.StateDownloading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapStatus(tt.statuses))
		})
	}
}

func TestMapStatus_ErrorAlwaysWins(t *testing.T) {
	others := []string{"seeding", "complete", "downloading", "stopped", "checking", "active", ""}

	for _, a := range others {
		for _, b := range others {
			assert.Equal(t, dc.StateWarning, MapStatus([]string{a, "error", b}), "statuses %q, error, %q", a, b)
		}
	}
}
