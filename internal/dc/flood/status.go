package flood

import (
	"strings"

	"github.com/italolelis/flood_bridge/internal/dc"
)

type statusRule struct {
	substrings []string
	state      dc.DownloadState
}

// statusRules is evaluated top to bottom, first match wins. Flood may report
// several statuses at once, so an erroring seed must still map to a warning.
var statusRules = []statusRule{
	{substrings: []string{"error"}, state: dc.StateWarning},
	{substrings: []string{"seeding", "complete"}, state: dc.StateCompleted},
	{substrings: []string{"downloading"}, state: dc.StateDownloading},
	{substrings: []string{"stopped"}, state: dc.StatePaused},
}

// MapStatus translates Flood statuses into a download state. Statuses that
// match no rule map to dc.StateQueued.
func MapStatus(statuses []string) dc.DownloadState {
	for _, rule := range statusRules {
		if containsAny(statuses, rule.substrings) {
			return rule.state
		}
	}

	return dc.StateQueued
}

func containsAny(statuses, substrings []string) bool {
	for _, status := range statuses {
		status = strings.ToLower(status)

		for _, sub := range substrings {
			if strings.Contains(status, sub) {
				return true
			}
		}
	}

	return false
}
