package dc

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DownloadState is the closed set of states a DownloadItem can be in.
type DownloadState int

const (
	StateQueued DownloadState = iota
	StateDownloading
	StatePaused
	StateCompleted
	StateFailed
	StateWarning
)

var stateNames = [...]string{
	StateQueued:      "queued",
	StateDownloading: "downloading",
	StatePaused:      "paused",
	StateCompleted:   "completed",
	StateFailed:      "failed",
	StateWarning:     "warning",
}

func (s DownloadState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("DownloadState(%d)", int(s))
	}

	return stateNames[s]
}

func (s DownloadState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *DownloadState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}

	for i, n := range stateNames {
		if strings.EqualFold(n, name) {
			*s = DownloadState(i)

			return nil
		}
	}

	return fmt.Errorf("unknown download state %q", name)
}
