package flood

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultURL = "http://localhost:3000"
	DefaultTag = "radarr"
)

// Settings is the stateless configuration of one Flood instance. Every proxy
// call receives the settings it should act upon.
type Settings struct {
	URL         string
	Username    string
	Password    string
	Destination string
	Tag         string
	StartOnAdd  bool
}

// DefaultSettings returns the settings a freshly added Flood client starts with.
func DefaultSettings() Settings {
	return Settings{
		URL:        DefaultURL,
		Tag:        DefaultTag,
		StartOnAdd: true,
	}
}

// Identity returns the session scope of these settings. Destination, tag and
// the other options do not take part in it.
func (s Settings) Identity() Identity {
	return Identity{URL: s.URL, Username: s.Username}
}

// Validate checks that URL is an absolute http(s) root URL.
func (s Settings) Validate() error {
	if strings.TrimSpace(s.URL) == "" {
		return fmt.Errorf("url is required")
	}

	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", s.URL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", s.URL)
	}

	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", s.URL)
	}

	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid url %q: must not contain a query or fragment", s.URL)
	}

	return nil
}

// apiURL joins the base URL, the fixed /api prefix and resource.
func (s Settings) apiURL(resource string) string {
	return strings.TrimRight(s.URL, "/") + "/api" + resource
}
