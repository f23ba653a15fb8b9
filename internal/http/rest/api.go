package rest

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/italolelis/flood_bridge/internal/dc"
	"github.com/italolelis/flood_bridge/internal/logctx"
	"github.com/italolelis/flood_bridge/internal/notifier"
	"github.com/italolelis/flood_bridge/internal/storage"
	"github.com/italolelis/flood_bridge/internal/svc/flood"
)

// maxBodySize leaves room for a base64 encoded maxTorrentSize file.
const maxBodySize = maxTorrentSize/3*4 + 4096

type addMagnetRequest struct {
	Hash       string `json:"hash"`
	MagnetLink string `json:"magnetLink"`
}

type addTorrentRequest struct {
	Hash     string `json:"hash"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type addResponse struct {
	ID string `json:"id"`
}

type statusResponse struct {
	Client string `json:"client"`
	dc.ClientInfo
}

type testResponse struct {
	Valid    bool                   `json:"valid"`
	Failures []dc.ValidationFailure `json:"failures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// APIHandler exposes a download client over HTTP.
type APIHandler struct {
	username string
	password string
	client   dc.DownloadClient
	grabs    storage.GrabRepository
	notifier notifier.Notifier
}

// NewAPIHandler creates the handler. Basic auth is enforced unless both
// username and password are empty.
func NewAPIHandler(username, password string, client dc.DownloadClient, grabs storage.GrabRepository, n notifier.Notifier) *APIHandler {
	if n == nil {
		n = notifier.Nop{}
	}

	return &APIHandler{
		username: username,
		password: password,
		client:   client,
		grabs:    grabs,
		notifier: n,
	}
}

func (h *APIHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(h.basicAuthMiddleware)

	r.Get("/status", h.HandleStatus)
	r.Post("/test", h.HandleTest)
	r.Get("/history", h.HandleHistory)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", h.HandleListItems)
		r.Post("/magnet", h.HandleAddMagnet)
		r.Post("/torrent", h.HandleAddTorrent)
		r.Delete("/{id}", h.HandleRemoveItem)
	})

	return r
}

func (h *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, statusResponse{
		Client:     h.client.Name(),
		ClientInfo: h.client.Status(r.Context()),
	})
}

func (h *APIHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	failures := h.client.Test(r.Context())
	if failures == nil {
		failures = []dc.ValidationFailure{}
	}

	writeJSON(w, r, http.StatusOK, testResponse{Valid: len(failures) == 0, Failures: failures})
}

func (h *APIHandler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.client.Items(r.Context())
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, items)
}

func (h *APIHandler) HandleAddMagnet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addMagnetRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)

		return
	}

	if req.Hash == "" {
		writeError(w, r, &dc.InvalidContentError{Field: "hash", Reason: "required"})

		return
	}

	if !strings.HasPrefix(req.MagnetLink, "magnet:") {
		writeError(w, r, &dc.InvalidContentError{Field: "magnetLink", Reason: "must be a magnet: URI"})

		return
	}

	id, err := h.client.AddFromMagnetLink(ctx, req.Hash, req.MagnetLink)
	if err != nil {
		writeError(w, r, err)

		return
	}

	h.recordGrab(ctx, storage.GrabRecord{
		DownloadID: id,
		Client:     h.client.Name(),
		Kind:       storage.KindMagnet,
		Source:     req.MagnetLink,
	}, fmt.Sprintf("Sent magnet %s to %s", id, h.client.Name()))

	writeJSON(w, r, http.StatusCreated, addResponse{ID: id})
}

func (h *APIHandler) HandleAddTorrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addTorrentRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)

		return
	}

	if req.Hash == "" {
		writeError(w, r, &dc.InvalidContentError{Field: "hash", Reason: "required"})

		return
	}

	content, err := decodeTorrentFile(req.Content)
	if err != nil {
		writeError(w, r, err)

		return
	}

	filename := req.Filename
	if filename == "" {
		filename = strings.ToLower(req.Hash) + ".torrent"
	}

	id, err := h.client.AddFromTorrentFile(ctx, req.Hash, filename, content)
	if err != nil {
		writeError(w, r, err)

		return
	}

	h.recordGrab(ctx, storage.GrabRecord{
		DownloadID: id,
		Client:     h.client.Name(),
		Kind:       storage.KindTorrentFile,
		Source:     filename,
	}, fmt.Sprintf("Sent %s (%s) to %s", filename, humanize.Bytes(uint64(len(content))), h.client.Name()))

	writeJSON(w, r, http.StatusCreated, addResponse{ID: id})
}

func (h *APIHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logctx.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")

	deleteData := false

	if v := r.URL.Query().Get("deleteData"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, &dc.InvalidContentError{Field: "deleteData", Reason: "must be a boolean", Err: err})

			return
		}

		deleteData = parsed
	}

	if err := h.client.RemoveItem(ctx, id, deleteData); err != nil {
		writeError(w, r, err)

		return
	}

	if h.grabs != nil {
		if err := h.grabs.DeleteGrab(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.ErrorContext(ctx, "failed to delete grab history", "download_id", id, "err", err)
		}
	}

	h.notify(ctx, fmt.Sprintf("Removed %s from %s (data deleted: %t)", id, h.client.Name(), deleteData))

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if h.grabs == nil {
		writeJSON(w, r, http.StatusOK, []storage.GrabRecord{})

		return
	}

	grabs, err := h.grabs.GetGrabs(r.Context())
	if err != nil {
		writeError(w, r, err)

		return
	}

	writeJSON(w, r, http.StatusOK, grabs)
}

// recordGrab stores rec and sends msg. Failures are logged; the grab itself
// already succeeded.
func (h *APIHandler) recordGrab(ctx context.Context, rec storage.GrabRecord, msg string) {
	logger := logctx.LoggerFromContext(ctx).With("download_id", rec.DownloadID, "kind", rec.Kind)

	if h.grabs != nil {
		if err := h.grabs.TrackGrab(ctx, rec); err != nil {
			logger.ErrorContext(ctx, "failed to track grab", "err", err)
		}
	}

	logger.InfoContext(ctx, "grab sent to download client")

	h.notify(ctx, msg)
}

func (h *APIHandler) notify(ctx context.Context, msg string) {
	if err := h.notifier.Notify(ctx, msg); err != nil && !errors.Is(err, notifier.ErrNoWebhook) {
		logctx.LoggerFromContext(ctx).WarnContext(ctx, "failed to send notification", "err", err)
	}
}

func (h *APIHandler) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.username == "" && h.password == "" {
			next.ServeHTTP(w, r)

			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "invalid authorization format"})

			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 1

		if !userOK || !passOK {
			writeJSON(w, r, http.StatusUnauthorized, errorResponse{Error: "invalid username or password"})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &dc.InvalidContentError{Field: "body", Reason: "invalid request body", Err: err}
	}

	return nil
}

// statusFor maps an error to the HTTP status returned to callers.
func statusFor(err error) int {
	switch {
	case dc.IsInvalidContentError(err):
		return http.StatusBadRequest
	case flood.IsAuthenticationError(err):
		return http.StatusUnauthorized
	case flood.IsConnectivityError(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)

	logctx.LoggerFromContext(ctx).WarnContext(ctx, "request failed", "status", status, "err", err)

	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		ctx := r.Context()
		logctx.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "err", err)
	}
}
