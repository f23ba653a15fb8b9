package rest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/italolelis/flood_bridge/internal/dc"
	"github.com/italolelis/flood_bridge/internal/storage"
	"github.com/italolelis/flood_bridge/internal/storage/sqlite"
	"github.com/italolelis/flood_bridge/internal/svc/flood"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTorrent = "d8:announce3:url4:infod4:name4:testee"

type mockClient struct {
	err        error
	items      []dc.DownloadItem
	failures   []dc.ValidationFailure
	lastHash   string
	lastLink   string
	lastFile   string
	lastBytes  []byte
	removedID  string
	deleteData bool
}

func (m *mockClient) Name() string { return "Flood" }

func (m *mockClient) AddFromMagnetLink(_ context.Context, hash, magnetLink string) (string, error) {
	m.lastHash, m.lastLink = hash, magnetLink

	if m.err != nil {
		return "", m.err
	}

	return hash, nil
}

func (m *mockClient) AddFromTorrentFile(_ context.Context, hash, filename string, content []byte) (string, error) {
	m.lastHash, m.lastFile, m.lastBytes = hash, filename, content

	if m.err != nil {
		return "", m.err
	}

	return hash, nil
}

func (m *mockClient) Items(context.Context) ([]dc.DownloadItem, error) {
	return m.items, m.err
}

func (m *mockClient) RemoveItem(_ context.Context, id string, deleteData bool) error {
	m.removedID, m.deleteData = id, deleteData

	return m.err
}

func (m *mockClient) Status(context.Context) dc.ClientInfo { return dc.ClientInfo{IsLocalhost: true} }

func (m *mockClient) Test(context.Context) []dc.ValidationFailure { return m.failures }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.messages = append(n.messages, content)

	return nil
}

type testEnv struct {
	client   *mockClient
	grabs    storage.GrabRepository
	notifier *recordingNotifier
	server   *httptest.Server
}

func newTestEnv(t *testing.T, client *mockClient) *testEnv {
	t.Helper()

	db, err := sqlite.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	env := &testEnv{
		client:   client,
		grabs:    sqlite.NewGrabRepository(db),
		notifier: &recordingNotifier{},
	}

	h := NewAPIHandler("radarr", "secret", client, env.grabs, env.notifier)
	env.server = httptest.NewServer(h.Routes())
	t.Cleanup(env.server.Close)

	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.SetBasicAuth("radarr", "secret")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

func TestAPI_BasicAuth(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	resp, err := http.Get(env.server.URL + "/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, env.server.URL+"/status", nil)
	req.SetBasicAuth("radarr", "wrong")

	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp2.StatusCode)
}

func TestAPI_AuthDisabled(t *testing.T) {
	h := NewAPIHandler("", "", &mockClient{}, nil, nil)

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_Status(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	resp := env.do(t, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Flood", body["client"])
	assert.Equal(t, true, body["isLocalhost"])
}

func TestAPI_AddMagnet(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	resp := env.do(t, http.MethodPost, "/items/magnet", `{"hash":"ABC123","magnetLink":"magnet:?xt=urn:btih:abc123"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "ABC123", decode[addResponse](t, resp).ID)
	assert.Equal(t, "magnet:?xt=urn:btih:abc123", env.client.lastLink)

	grabs, err := env.grabs.GetGrabs(context.Background())
	require.NoError(t, err)
	require.Len(t, grabs, 1)
	assert.Equal(t, "abc123", grabs[0].DownloadID)
	assert.Equal(t, storage.KindMagnet, grabs[0].Kind)

	require.Len(t, env.notifier.messages, 1)
	assert.Contains(t, env.notifier.messages[0], "ABC123")
}

func TestAPI_AddMagnetValidation(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	tests := []string{
		`{"hash":"","magnetLink":"magnet:?xt=urn:btih:abc"}`,
		`{"hash":"abc","magnetLink":"http://example.com/a.torrent"}`,
		`not json`,
	}

	for _, body := range tests {
		resp := env.do(t, http.MethodPost, "/items/magnet", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	assert.Empty(t, env.client.lastLink)
}

func TestAPI_AddTorrent(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	content := base64.StdEncoding.EncodeToString([]byte(validTorrent))

	resp := env.do(t, http.MethodPost, "/items/torrent", fmt.Sprintf(`{"hash":"def456","content":%q}`, content))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, "def456", decode[addResponse](t, resp).ID)
	assert.Equal(t, "def456.torrent", env.client.lastFile)
	assert.Equal(t, []byte(validTorrent), env.client.lastBytes)
}

func TestAPI_AddTorrentInvalid(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	for name, content := range map[string]string{
		"not base64":   "%%%",
		"empty":        "",
		"not bencode":  base64.StdEncoding.EncodeToString([]byte("not bencode at all")),
		"list root":    base64.StdEncoding.EncodeToString([]byte("l4:infoe")),
		"missing info": base64.StdEncoding.EncodeToString([]byte("d8:announce3:urle")),
	} {
		resp := env.do(t, http.MethodPost, "/items/torrent", fmt.Sprintf(`{"hash":"abc","content":%q}`, content))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, name)
	}

	assert.Nil(t, env.client.lastBytes)
}

func TestAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", fmt.Errorf("failed to get torrents: %w", &flood.AuthenticationError{Operation: "torrents.list"}), http.StatusUnauthorized},
		{"connectivity", fmt.Errorf("failed to get torrents: %w", &flood.ConnectivityError{Operation: "torrents.list", StatusCode: 500}), http.StatusBadGateway},
		{"other", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, &mockClient{err: tt.err})

			resp := env.do(t, http.MethodGet, "/items", "")
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decode[errorResponse](t, resp).Error)
		})
	}
}

func TestAPI_ConnectivityMessage(t *testing.T) {
	env := newTestEnv(t, &mockClient{err: &flood.ConnectivityError{Operation: "torrents.add-urls"}})

	resp := env.do(t, http.MethodPost, "/items/magnet", `{"hash":"abc","magnetLink":"magnet:?xt=urn:btih:abc"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "unable to connect to Flood, please check your settings")

	grabs, err := env.grabs.GetGrabs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, grabs)
}

func TestAPI_ListItems(t *testing.T) {
	env := newTestEnv(t, &mockClient{items: []dc.DownloadItem{
		{DownloadID: "abc", Title: "Movie", Status: dc.StateCompleted, Category: "radarr"},
	}})

	resp := env.do(t, http.MethodGet, "/items", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := decode[[]map[string]any](t, resp)
	require.Len(t, items, 1)
	assert.Equal(t, "abc", items[0]["downloadId"])
	assert.Equal(t, "completed", items[0]["status"])
}

func TestAPI_RemoveItem(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	require.NoError(t, env.grabs.TrackGrab(context.Background(), storage.GrabRecord{
		DownloadID: "abc", Client: "Flood", Kind: storage.KindMagnet,
	}))

	resp := env.do(t, http.MethodDelete, "/items/abc?deleteData=true", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	assert.Equal(t, "abc", env.client.removedID)
	assert.True(t, env.client.deleteData)

	grabs, err := env.grabs.GetGrabs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, grabs)

	resp = env.do(t, http.MethodDelete, "/items/abc?deleteData=maybe", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_Test(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		env := newTestEnv(t, &mockClient{})

		resp := env.do(t, http.MethodPost, "/test", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decode[testResponse](t, resp)
		assert.True(t, body.Valid)
		assert.NotNil(t, body.Failures)
		assert.Empty(t, body.Failures)
	})

	t.Run("invalid", func(t *testing.T) {
		env := newTestEnv(t, &mockClient{failures: []dc.ValidationFailure{{Field: "Password", Message: "rejected"}}})

		body := decode[testResponse](t, env.do(t, http.MethodPost, "/test", ""))
		assert.False(t, body.Valid)
		require.Len(t, body.Failures, 1)
		assert.Equal(t, "Password", body.Failures[0].Field)
	})
}

func TestAPI_History(t *testing.T) {
	env := newTestEnv(t, &mockClient{})

	resp := env.do(t, http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]storage.GrabRecord](t, resp))

	env.do(t, http.MethodPost, "/items/magnet", `{"hash":"abc","magnetLink":"magnet:?xt=urn:btih:abc"}`)

	grabs := decode[[]storage.GrabRecord](t, env.do(t, http.MethodGet, "/history", ""))
	require.Len(t, grabs, 1)
	assert.Equal(t, "Flood", grabs[0].Client)
}
