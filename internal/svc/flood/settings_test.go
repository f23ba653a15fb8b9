package flood

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	assert.Equal(t, "http://localhost:3000", s.URL)
	assert.Equal(t, "radarr", s.Tag)
	assert.True(t, s.StartOnAdd)
	assert.Empty(t, s.Destination)
}

func TestSettings_Identity(t *testing.T) {
	a := Settings{URL: "http://h:3000", Username: "a", Password: "x", Tag: "radarr"}
	b := Settings{URL: "http://h:3000", Username: "a", Password: "y", Tag: "sonarr", Destination: "/tv"}

	assert.Equal(t, a.Identity(), b.Identity())
	assert.NotEqual(t, a.Identity(), Settings{URL: "http://h:3001", Username: "a"}.Identity())
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"default", "http://localhost:3000", false},
		{"https with path", "https://seedbox.example.com/flood", false},
		{"trailing slash", "http://h:3000/", false},
		{"empty", "", true},
		{"no scheme", "localhost:3000", true},
		{"ftp", "ftp://h:3000", true},
		{"query", "http://h:3000/?a=b", true},
		{"no host", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Settings{URL: tt.url}.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettings_APIURL(t *testing.T) {
	assert.Equal(t, "http://h:3000/api/torrents", Settings{URL: "http://h:3000"}.apiURL("/torrents"))
	assert.Equal(t, "http://h:3000/flood/api/auth/verify", Settings{URL: "http://h:3000/flood/"}.apiURL("/auth/verify"))
}
